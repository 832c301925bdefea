// Package contract is the single source of truth for the HTTP surface:
// the route table shared by server and client, the insert-shape inputs
// (persisted entities minus server-assigned fields), and input validation.
package contract

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Route is one entry of the API table.
type Route struct {
	Method string
	Path   string
}

// API maps every operation to its method and URL template. Templates use
// :param placeholders; see BuildURL.
var API = struct {
	FavoritesList   Route
	FavoritesCreate Route
	FavoritesDelete Route

	ScenariosList   Route
	ScenariosCreate Route
	ScenariosDelete Route

	CryptoMarket  Route
	CryptoHistory Route

	Login       Route
	Logout      Route
	Register    Route
	CurrentUser Route

	ConversationsCreate Route
	MessagesList        Route
	MessagesCreate      Route
}{
	FavoritesList:   Route{Method: "GET", Path: "/api/favorites"},
	FavoritesCreate: Route{Method: "POST", Path: "/api/favorites"},
	FavoritesDelete: Route{Method: "DELETE", Path: "/api/favorites/:id"},

	ScenariosList:   Route{Method: "GET", Path: "/api/scenarios"},
	ScenariosCreate: Route{Method: "POST", Path: "/api/scenarios"},
	ScenariosDelete: Route{Method: "DELETE", Path: "/api/scenarios/:id"},

	CryptoMarket:  Route{Method: "GET", Path: "/api/crypto/market"},
	CryptoHistory: Route{Method: "GET", Path: "/api/crypto/:id/history"},

	Login:       Route{Method: "POST", Path: "/api/login"},
	Logout:      Route{Method: "POST", Path: "/api/logout"},
	Register:    Route{Method: "POST", Path: "/api/register"},
	CurrentUser: Route{Method: "GET", Path: "/api/auth/user"},

	ConversationsCreate: Route{Method: "POST", Path: "/api/conversations"},
	MessagesList:        Route{Method: "GET", Path: "/api/conversations/:id/messages"},
	MessagesCreate:      Route{Method: "POST", Path: "/api/conversations/:id/messages"},
}

// BuildURL substitutes :key placeholders in a URL template. Params without a
// matching placeholder are ignored; placeholders without a matching param are
// left as-is (a caller error, surfaced by the resulting request failing).
func BuildURL(path string, params map[string]interface{}) string {
	url := path
	for key, value := range params {
		placeholder := ":" + key
		if strings.Contains(url, placeholder) {
			url = strings.Replace(url, placeholder, fmt.Sprintf("%v", value), 1)
		}
	}
	return url
}

// MuxPath converts a :param template into the {param} form gorilla/mux
// expects. Params stay unconstrained: the crypto history id is a coin slug,
// and handlers reject non-numeric ids on the numeric routes themselves.
func MuxPath(path string) string {
	return paramPattern.ReplaceAllStringFunc(path, func(m string) string {
		return "{" + m[1:] + "}"
	})
}

var paramPattern = regexp.MustCompile(`:[a-zA-Z]+`)

// InsertFavorite is the Favorite insert shape: the persisted entity minus
// id/createdAt, with the owner always taken from the session, never the body.
type InsertFavorite struct {
	Symbol string `json:"symbol" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

// InsertScenario is the Scenario insert shape. Date arrives as an ISO 8601
// string and InvestmentAmount as a decimal string; both are validated before
// they reach storage.
type InsertScenario struct {
	CoinID           string  `json:"coinId" validate:"required"`
	Date             string  `json:"date" validate:"required"`
	InvestmentAmount string  `json:"investmentAmount" validate:"required"`
	Notes            *string `json:"notes"`
}

// InsertMessage is the chat message insert shape.
type InsertMessage struct {
	Content string `json:"content" validate:"required"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ValidationError reports the first violated field of a request body.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = newValidator()

// newValidator builds a validator that reports fields by their JSON names,
// so error messages match what clients actually sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks an input struct against its validate tags and returns a
// ValidationError for the first violated field, or nil.
func Validate(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		first := errs[0]
		return &ValidationError{
			Field:   first.Field(),
			Message: fmt.Sprintf("%s is %s", first.Field(), first.Tag()),
		}
	}
	return err
}
