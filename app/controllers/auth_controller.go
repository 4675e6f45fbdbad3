package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/replybot-ai/replybot/app/models"
	"github.com/replybot-ai/replybot/app/repository"
	"github.com/replybot-ai/replybot/internal/pkg/database"
	"github.com/replybot-ai/replybot/internal/pkg/env"
	"github.com/replybot-ai/replybot/internal/pkg/hcaptcha"
	"github.com/replybot-ai/replybot/internal/pkg/mail"
	"github.com/replybot-ai/replybot/internal/pkg/session"
)

const (
	AUTH_KEY       string = "authenticated"
	USER_ID        string = "user_id"
	USER_NAME      string = "username"
	USER_IS_ADMIN  string = "isAdmin"
	FROM_PROTECTED string = "fromProtected"
)

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		var user models.User
		fm := fiber.Map{
			"type": "error",
		}

		// notice: in production you should not inform the user
		// with detailed messages about login failures
		result := database.GetDB().Where("email = ?", c.FormValue("email")).First(&user)
		if result.Error != nil {
			fm["message"] = "There is a problem with the login process"

			return flash.WithError(c, fm).Redirect("/login")
		}

		if models.CheckPasswordHash(c.FormValue("password"), user.Password) == false {
			fm["message"] = "There is a problem with the login process"

			return flash.WithError(c, fm).Redirect("/login")
		}

		if user.Status != models.STATUS_ACTIVE {
			fm["message"] = "Please activate your account first. Check your inbox."

			return flash.WithError(c, fm).Redirect("/login")
		}

		sess, err := session.GetSessionStore().Get(c)
		if err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect("/login")
		}

		sess.Set(AUTH_KEY, true)
		sess.Set(USER_ID, user.ID)
		sess.Set(USER_NAME, user.Name)
		sess.Set(USER_IS_ADMIN, user.Role == "admin")

		err = sess.Save()
		if err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect("/login")
		}

		database.GetDB().Model(&user).Update("last_login_at", time.Now())

		fm = fiber.Map{
			"type":    "success",
			"message": "Welcome back!",
		}

		return flash.WithSuccess(c, fm).Redirect("/")
	}

	return c.Render("auth/login", fiber.Map{
		"Title":         "Sign In",
		"FromProtected": isLoggedIn(c),
		"CsrfToken":     c.Locals("csrf"),
		"Flash":         flash.Get(c),
	}, "layouts/main")
}

func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"

		return flash.WithError(c, fm).Redirect("/login")
	}

	err = sess.Destroy()
	if err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Bye bye! See you soon.",
	}

	c.Locals(FROM_PROTECTED, false)

	return flash.WithSuccess(c, fm).Redirect("/login")
}

func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		if env.GetEnv("HCAPTCHA_SECRET", "") != "" {
			if ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response")); !ok {
				log.Errorf("[Register] captcha verification failed: %v", err)
				fm := fiber.Map{
					"type":    "error",
					"message": "Captcha verification failed. Please try again.",
				}

				return flash.WithError(c, fm).Redirect("/register")
			}
		}

		user, err := models.CreateUser(c.FormValue("username"), c.FormValue("email"), c.FormValue("password"))
		if err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}

			return flash.WithError(c, fm).Redirect("/register")
		}

		token, err := models.GenerateActivationToken()
		if err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}

			return flash.WithError(c, fm).Redirect("/register")
		}
		now := time.Now()
		user.ActivationToken = token
		user.ActivationSentAt = &now

		err = database.GetDB().Create(&user).Error
		if err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}

			return flash.WithError(c, fm).Redirect("/register")
		}

		go mail.SendActivationMail(user.Email, user.Name, user.ActivationToken)

		fm := fiber.Map{
			"type":    "success",
			"message": "Registration successful! Check your inbox for the activation link.",
		}

		return flash.WithSuccess(c, fm).Redirect("/login")
	}

	return c.Render("auth/register", fiber.Map{
		"Title":           "Register",
		"FromProtected":   isLoggedIn(c),
		"CsrfToken":       c.Locals("csrf"),
		"Flash":           flash.Get(c),
		"HCaptchaSiteKey": env.GetEnv("HCAPTCHA_SITE_KEY", ""),
	}, "layouts/main")
}

// HandleUserActivate confirms the activation token sent by mail and unlocks
// the account.
func HandleUserActivate(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		fm := fiber.Map{
			"type":    "error",
			"message": "Activation link is invalid.",
		}

		return flash.WithError(c, fm).Redirect("/login")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Activation link is invalid or expired.",
		}

		return flash.WithError(c, fm).Redirect("/login")
	}

	if user.ActivationSentAt != nil && time.Since(*user.ActivationSentAt) > 48*time.Hour {
		fm := fiber.Map{
			"type":    "error",
			"message": "Activation link is invalid or expired.",
		}

		return flash.WithError(c, fm).Redirect("/login")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	user.ActivationSentAt = nil
	if err := repo.Update(user); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}

		return flash.WithError(c, fm).Redirect("/login")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Your account is active. You can sign in now.",
	}

	return flash.WithSuccess(c, fm).Redirect("/login")
}
