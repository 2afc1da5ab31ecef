package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

func loginForm(message, email string) string {
	banner := ""
	if message != "" {
		banner = fmt.Sprintf(`<p class="form-message" role="alert">%s</p>`, templ.EscapeString(message))
	}
	return fmt.Sprintf(`<section class="auth-card" id="auth-card">
<h1>Sign in to RationBook</h1>
%s
<form method="post" action="/login" hx-post="/login" hx-target="#auth-card" hx-swap="outerHTML">
<label for="email">Email</label>
<input type="email" id="email" name="email" value="%s" autocomplete="email" required>
<label for="password">Password</label>
<input type="password" id="password" name="password" autocomplete="current-password" required>
<button type="submit">Sign in</button>
</form>
<p class="auth-switch">New here? <a href="/signup">Create an account</a></p>
</section>`, banner, templ.EscapeString(email))
}

// Login renders the full sign-in page.
func Login(message, email string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, documentShell("Sign in · RationBook", loginForm(message, email)))
		return err
	})
}

// LoginPartial renders only the sign-in card for HTMX swaps.
func LoginPartial(message, email string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, loginForm(message, email))
		return err
	})
}

func signupForm(message, name, email string) string {
	banner := ""
	if message != "" {
		banner = fmt.Sprintf(`<p class="form-message" role="alert">%s</p>`, templ.EscapeString(message))
	}
	return fmt.Sprintf(`<section class="auth-card" id="auth-card">
<h1>Create your RationBook account</h1>
%s
<form method="post" action="/signup" hx-post="/signup" hx-target="#auth-card" hx-swap="outerHTML">
<label for="name">Name</label>
<input type="text" id="name" name="name" value="%s" autocomplete="name">
<label for="email">Email</label>
<input type="email" id="email" name="email" value="%s" autocomplete="email" required>
<label for="password">Password</label>
<input type="password" id="password" name="password" autocomplete="new-password" required>
<label for="confirm_password">Confirm password</label>
<input type="password" id="confirm_password" name="confirm_password" autocomplete="new-password" required>
<button type="submit">Create account</button>
</form>
<p class="auth-switch">Already registered? <a href="/login">Sign in</a></p>
</section>`, banner, templ.EscapeString(name), templ.EscapeString(email))
}

// Signup renders the full registration page.
func Signup(message, name, email string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, documentShell("Create account · RationBook", signupForm(message, name, email)))
		return err
	})
}

// SignupPartial renders only the registration card for HTMX swaps.
func SignupPartial(message, name, email string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, signupForm(message, name, email))
		return err
	})
}

func documentShell(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
</head>
<body>
%s
</body>
</html>`, templ.EscapeString(title), body)
}
