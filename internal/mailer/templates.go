package mailer

import "github.com/dmitrijs2005/nicole/internal/models"

type template struct {
	subject string
	// body takes the code and the validity in minutes.
	body string
}

var templates = map[models.Purpose]template{
	models.PurposePasswordReset: {
		subject: "Password recovery code",
		body: `Hello,

You asked for a code to recover your password.
Your verification code is: %s

The code is valid for %d minutes. If you did not ask for this change,
ignore this message.
`,
	},
	models.PurposeRegistration: {
		subject: "Confirm your new account",
		body: `Hello,

An administrator is creating an account for this address.
Your verification code is: %s

The code is valid for %d minutes. If you do not expect an account,
ignore this message.
`,
	},
	models.PurposeProfileChange: {
		subject: "Confirm your profile change",
		body: `Hello,

You asked to change the email or password of your account.
Your verification code is: %s

The code is valid for %d minutes. If you did not ask for this change,
ignore this message.
`,
	},
}
