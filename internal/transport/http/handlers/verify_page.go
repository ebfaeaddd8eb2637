package http_handlers

import (
	"html/template"
	"net/http"
)

type verifyPage struct {
	Title   string
	Heading string
	Body    string
	Button  string
	Link    string
}

var (
	pageVerified = verifyPage{
		Title:   "Email Verified - ChatCPE",
		Heading: "Email Verified Successfully!",
		Body:    "Your email has been verified. You can now sign in to ChatCPE and start chatting.",
		Button:  "Sign In Now",
	}
	pageAlreadyVerified = verifyPage{
		Title:   "Already Verified - ChatCPE",
		Heading: "Already Verified",
		Body:    "Your email has already been verified. You can sign in to your account.",
		Button:  "Sign In Now",
	}
	pageExpired = verifyPage{
		Title:   "Link Expired - ChatCPE",
		Heading: "Verification Link Expired",
		Body:    "This verification link has expired. Please request a new verification email.",
		Button:  "Go to Home",
	}
	pageInvalid = verifyPage{
		Title:   "Verification Failed - ChatCPE",
		Heading: "Invalid Verification Link",
		Body:    "The verification link is invalid or has expired. Please try registering again or contact support.",
		Button:  "Go to Home",
	}
	pageUnavailable = verifyPage{
		Title:   "Try Again Later - ChatCPE",
		Heading: "Service Unavailable",
		Body:    "We could not verify your email right now. Please try the link again in a few minutes.",
		Button:  "Go to Home",
	}
)

var verifyTmpl = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0; background: white; }
.container { text-align: center; }
h1 { color: #333; margin-bottom: 20px; }
p { color: #666; line-height: 1.6; margin-bottom: 30px; }
.btn { display: inline-block; background: #4960ac; color: white; padding: 12px 30px; border-radius: 6px; text-decoration: none; font-weight: 500; }
.btn:hover { background: #3a4d8a; }
</style>
</head>
<body>
<div class="container">
<h1>{{.Heading}}</h1>
<p>{{.Body}}</p>
<a href="{{.Link}}" class="btn">{{.Button}}</a>
</div>
</body>
</html>
`))

func renderVerifyPage(w http.ResponseWriter, status int, page verifyPage, appBaseURL string) {
	page.Link = appBaseURL

	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none'; base-uri 'none'")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = verifyTmpl.Execute(w, page)
}
