package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}
			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// Actor is the authenticated caller as carried by the access token.
type Actor struct {
	UserID     string
	EmployeeID string
	Role       user.Role
}

// ActorFromContext reads the verified token claims. It fails with
// user.ErrInvalidToken when the request carries no user id.
func ActorFromContext(ctx context.Context) (Actor, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Actor{}, user.ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return Actor{}, user.ErrInvalidToken
	}
	employeeID, _ := claims["employee_id"].(string)
	role, _ := claims["role"].(string)

	return Actor{UserID: userID, EmployeeID: employeeID, Role: user.Role(role)}, nil
}
