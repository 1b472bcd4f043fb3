package services

import (
	"fmt"
	"strings"
)

// renderEmail turns a notification into a plain-text subject and body.
func renderEmail(n Notification) (subject, body string) {
	d := n.Data
	switch n.Template {
	case TemplateAccountCreated:
		return "Welcome aboard",
			fmt.Sprintf("Hello %s,\n\nYour account has been created with the email %s.\n", greeting(d), d["email"])
	case TemplateLoginAlert:
		return "New sign-in to your account",
			fmt.Sprintf("Hello %s,\n\nWe noticed a sign-in at %s from %s (%s).\nIf this was not you, reset your password.\n",
				greeting(d), d["time"], d["location"], d["ip"])
	case TemplatePasswordResetRequested:
		return "Reset your password",
			fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password. It expires at %s.\n\n%s\n",
				greeting(d), d["expiresAt"], d["resetLink"])
	case TemplatePasswordResetCompleted:
		return "Your password was changed",
			fmt.Sprintf("Hello %s,\n\nYour password was changed at %s.\n", greeting(d), d["time"])
	case TemplateOrderConfirmation:
		return fmt.Sprintf("Order %s confirmed", d["productId"]),
			fmt.Sprintf("Order %s\nProduct: %s\nQuantity: %s\nUnit price: %s\nTotal: %s\nStatus: %s\n",
				d["productId"], d["productName"], d["quantity"], d["productPrice"], d["total"], d["status"])
	default:
		return string(n.Template), formatData(d)
	}
}

func greeting(d map[string]string) string {
	for _, key := range []string{"fullName", "username", "email"} {
		if v := strings.TrimSpace(d[key]); v != "" {
			return v
		}
	}
	return "there"
}

func formatData(d map[string]string) string {
	var b strings.Builder
	for k, v := range d {
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	return b.String()
}
