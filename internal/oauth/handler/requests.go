package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"

	"pdsoauth/internal/oauth/models"
	dErrors "pdsoauth/pkg/domain-errors"
)

const maxBodyBytes = 64 << 10

// bodyParams are the authorize and token parameters. In a JSON body each must
// be a string; other keys are ignored.
var bodyParams = map[string]bool{
	"client_id":     true,
	"client_secret": true,
	"redirect_uri":  true,
	"response_type": true,
	"grant_type":    true,
	"state":         true,
	"scope":         true,
	"username":      true,
	"password":      true,
	"code":          true,
	"refresh_token": true,
}

// decodeBody fills params from a JSON object or an urlencoded form,
// depending on the request content type.
func decodeBody(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "invalid JSON body")
		}
		params := url.Values{}
		for key, value := range raw {
			switch v := value.(type) {
			case string:
				params.Set(key, v)
			case nil:
			default:
				if bodyParams[key] {
					return nil, dErrors.New(dErrors.CodeInvalidRequest, key+" must be a string")
				}
			}
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "request body too large")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "invalid form body")
	}
	return r.PostForm, nil
}

func parseAuthorizeRequest(w http.ResponseWriter, r *http.Request) (*models.AuthorizeRequest, error) {
	params, err := decodeBody(w, r)
	if err != nil {
		return nil, err
	}
	return &models.AuthorizeRequest{
		ClientID:     params.Get("client_id"),
		RedirectURI:  params.Get("redirect_uri"),
		ResponseType: params.Get("response_type"),
		GrantType:    params.Get("grant_type"),
		State:        params.Get("state"),
		Scope:        params.Get("scope"),
		Username:     params.Get("username"),
		Password:     params.Get("password"),
	}, nil
}

// parseTokenRequest reads the token body. Client credentials may arrive as
// HTTP Basic auth, form-encoded per RFC 6749 section 2.3.1.
func parseTokenRequest(w http.ResponseWriter, r *http.Request) (*models.TokenRequest, error) {
	params, err := decodeBody(w, r)
	if err != nil {
		return nil, err
	}
	req := &models.TokenRequest{
		GrantType:    params.Get("grant_type"),
		ClientID:     params.Get("client_id"),
		ClientSecret: params.Get("client_secret"),
		Code:         params.Get("code"),
		RedirectURI:  params.Get("redirect_uri"),
		RefreshToken: params.Get("refresh_token"),
		Username:     params.Get("username"),
		Password:     params.Get("password"),
		Scope:        params.Get("scope"),
	}

	if user, pass, ok := r.BasicAuth(); ok {
		clientID, err := url.QueryUnescape(user)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidClient, "malformed client credentials")
		}
		clientSecret, err := url.QueryUnescape(pass)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidClient, "malformed client credentials")
		}
		if req.ClientID != "" && req.ClientID != clientID {
			return nil, dErrors.New(dErrors.CodeInvalidRequest, "client_id does not match the authenticated client")
		}
		if req.ClientSecret != "" {
			return nil, dErrors.New(dErrors.CodeInvalidRequest, "multiple client authentication methods")
		}
		req.ClientID = clientID
		req.ClientSecret = clientSecret
	}
	return req, nil
}
