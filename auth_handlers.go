package main

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

const cookieToken = cookiePrefix + "token"
const cookieUsername = cookiePrefix + "username"

// loginPageHandler renders the login page (GET /login).
func (fe *frontendServer) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	registered := r.URL.Query().Get("registered")
	data := map[string]interface{}{}
	if registered == "true" {
		data["success_message"] = "Registration successful! Please log in."
	}
	if err := templates.ExecuteTemplate(w, "login", fe.injectCommonTemplateData(r, data)); err != nil {
		log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
		log.Error(err)
	}
}

// loginSubmitHandler handles the login form submission (POST /login).
func (fe *frontendServer) loginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	email := r.FormValue("email")
	password := r.FormValue("password")

	result, err := fe.authLogin(email, password)
	if err != nil {
		log.WithField("error", err).Warn("login failed")
		if templateErr := templates.ExecuteTemplate(w, "login", fe.injectCommonTemplateData(r, map[string]interface{}{
			"login_error": err.Error(),
			"email":       email,
		})); templateErr != nil {
			log.Error(templateErr)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   cookieToken,
		Value:  result.Token,
		MaxAge: cookieMaxAge,
		Path:   "/",
	})
	http.SetCookie(w, &http.Cookie{
		Name:   cookieUsername,
		Value:  result.Name,
		MaxAge: cookieMaxAge,
		Path:   "/",
	})

	log.WithField("user", result.Email).Info("user logged in")

	// Hydrate the session's cart mirror with the persisted cart right away
	// so the badge is correct on the next page.
	if profile, err := fe.authGetProfile(r.Context(), result.Token); err == nil {
		token := result.Token
		store := fe.carts.ForSession(sessionID(r), func() string { return token })
		store.Replace(toLines(profile.Cart))
	} else {
		log.WithField("error", err).Warn("failed to hydrate cart after login")
	}

	w.Header().Set("Location", baseUrl+"/")
	w.WriteHeader(http.StatusFound)
}

// registerPageHandler renders the registration page (GET /register).
func (fe *frontendServer) registerPageHandler(w http.ResponseWriter, r *http.Request) {
	if err := templates.ExecuteTemplate(w, "register", fe.injectCommonTemplateData(r, map[string]interface{}{})); err != nil {
		log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
		log.Error(err)
	}
}

// registerSubmitHandler handles the registration form submission (POST /register).
func (fe *frontendServer) registerSubmitHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	req := RegisterRequest{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	if err := fe.authRegister(req); err != nil {
		log.WithField("error", err).Warn("registration failed")
		if templateErr := templates.ExecuteTemplate(w, "register", fe.injectCommonTemplateData(r, map[string]interface{}{
			"register_error": err.Error(),
			"name":           req.Name,
			"email":          req.Email,
		})); templateErr != nil {
			log.Error(templateErr)
		}
		return
	}

	log.WithField("email", req.Email).Info("user registered")
	w.Header().Set("Location", baseUrl+"/login?registered=true")
	w.WriteHeader(http.StatusFound)
}

// profilePageHandler renders the buyer profile page (GET /profile).
func (fe *frontendServer) profilePageHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	token := fe.authToken(r)
	if token == "" {
		w.Header().Set("Location", baseUrl+"/login")
		w.WriteHeader(http.StatusFound)
		return
	}

	profile, err := fe.authGetProfile(r.Context(), token)
	if err != nil {
		log.WithField("error", err).Warn("failed to get profile")
		// Token might be expired; drop the cookies and start over.
		clearAuthCookies(w)
		w.Header().Set("Location", baseUrl+"/login")
		w.WriteHeader(http.StatusFound)
		return
	}

	if err := templates.ExecuteTemplate(w, "profile", fe.injectCommonTemplateData(r, map[string]interface{}{
		"profile":   profile,
		"cart_size": fe.sessionCart(r).Size(),
	})); err != nil {
		log.Error(err)
	}
}

// logoutHandler clears auth cookies, drops the session's cart mirror and
// redirects home (GET /logout).
func (fe *frontendServer) logoutHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("logging out")

	clearAuthCookies(w)
	fe.carts.EndSession(sessionID(r))
	w.Header().Set("Location", baseUrl+"/")
	w.WriteHeader(http.StatusFound)
}

// --- Helper functions ---

func (fe *frontendServer) authToken(r *http.Request) string {
	c, err := r.Cookie(cookieToken)
	if err != nil {
		return ""
	}
	return c.Value
}

func (fe *frontendServer) authUsername(r *http.Request) string {
	c, err := r.Cookie(cookieUsername)
	if err != nil {
		return ""
	}
	return c.Value
}

func (fe *frontendServer) isLoggedIn(r *http.Request) bool {
	return fe.authToken(r) != ""
}

func clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   cookieToken,
		Value:  "",
		MaxAge: -1,
		Path:   "/",
	})
	http.SetCookie(w, &http.Cookie{
		Name:   cookieUsername,
		Value:  "",
		MaxAge: -1,
		Path:   "/",
	})
}
