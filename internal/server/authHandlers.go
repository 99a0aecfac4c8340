package server

import (
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"net/http"
	"time"
)

const (
	tokenIssuer   = "pricewatch"
	tokenSubject  = "admin"
	tokenLifetime = 30 * 24 * time.Hour
)

func (s Server) authLogin() http.HandlerFunc {
	type request struct {
		Password string `json:"password"`
	}
	type response struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		if !s.authEnabled() {
			s.writeFailure(w, "authentication is not configured", http.StatusNotFound)
			return
		}

		req := request{}
		if !s.decodeJSON(w, r, "authLogin", &req) {
			return
		}
		if err := bcrypt.CompareHashAndPassword(s.AuthPasswordHash, []byte(req.Password)); err != nil {
			s.Logger.Debugf("authLogin: Wrong password from %s, TraceID: %s", r.RemoteAddr, tid)
			s.writeFailure(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		lt, exp, err := s.createLoginToken()
		if err != nil {
			s.Logger.Errorf("authLogin: Error creating login token, err: %v, TraceID: %s", err, tid)
			s.writeFailure(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("authLogin: Login from %s, TraceID: %s", r.RemoteAddr, tid)
		s.writeData(w, response{Token: lt, ExpiresAt: exp}, http.StatusOK)
	}
}

func (s Server) createLoginToken() (string, time.Time, error) {
	exp := time.Now().Add(tokenLifetime)
	t, err := jwt.NewBuilder().
		Subject(tokenSubject).
		Issuer(tokenIssuer).
		JwtID(uuid.NewString()).
		IssuedAt(time.Now()).
		Expiration(exp).
		Build()
	if err != nil {
		return "", exp, errors.Wrap(err, "error creating login token")
	}
	lt, err := jwt.Sign(t, jwt.WithKey(jwa.HS256, s.AuthSecretKey))
	if err != nil {
		return "", exp, errors.Wrap(err, "error signing login token")
	}
	return string(lt), t.Expiration(), nil
}
