package account

import (
	"net/http"

	"github.com/goliatone/go-router"
)

// Response is the JSON envelope of every endpoint
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// SigninData is returned by a successful signin
type SigninData struct {
	IsAdmin     bool        `json:"is_admin"`
	UserInfo    ProfileView `json:"userInfo"`
	AccessToken string      `json:"accessToken"`
	Token       string      `json:"token"`
}

// VerifyData is returned by a successful session verification
type VerifyData struct {
	UserInfo    ProfileView `json:"userInfo"`
	AccessToken string      `json:"accessToken"`
	Token       string      `json:"token"`
}

// MeData is returned by the session guarded profile route
type MeData struct {
	Account  string      `json:"account"`
	IsAdmin  bool        `json:"is_admin"`
	UserInfo ProfileView `json:"userInfo"`
}

type HTTPControllerRoutes struct {
	Signup   string
	Signin   string
	Signout  string
	Verify   string
	Activate string
	Me       string
}

type HTTPController struct {
	Debug     bool
	Logger    Logger
	Lifecycle *Lifecycle
	Sessions  *SessionStore
	Routes    *HTTPControllerRoutes
}

type HTTPControllerOption func(*HTTPController) *HTTPController

func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRoutes(routes *HTTPControllerRoutes) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

func WithControllerDebug(debug bool) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Debug = debug
		return c
	}
}

func NewHTTPController(lifecycle *Lifecycle, sessions *SessionStore, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger:    NopLogger(),
		Lifecycle: lifecycle,
		Sessions:  sessions,
		Routes: &HTTPControllerRoutes{
			Signup:   "/signup",
			Signin:   "/signin",
			Signout:  "/signout",
			Verify:   "/verify",
			Activate: "/active_account",
			Me:       "/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Lifecycle == nil {
		panic("Missing Lifecycle in account controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionStore in account controller...")
	}

	return c
}

// RegisterAccountRoutes mounts the account endpoints of controller on app
func RegisterAccountRoutes[T any](app router.Router[T], controller *HTTPController) {
	app.Post(controller.Routes.Signup, controller.Signup).
		SetName("account.signup")

	app.Post(controller.Routes.Signin, controller.Signin).
		SetName("account.signin")

	app.Post(controller.Routes.Signout, controller.Signout).SetName("account.signout.post")
	app.Get(controller.Routes.Signout, controller.Signout).SetName("account.signout.get")

	app.Get(controller.Routes.Verify, controller.Verify).
		SetName("account.verify")

	app.Get(controller.Routes.Activate, controller.Activate).
		SetName("account.activate")

	app.Get(controller.Routes.Me, controller.Me, controller.RequireSession()).
		SetName("account.me")
}

func (a *HTTPController) Signup(ctx router.Context) error {
	payload := new(RegisterAccountMessage)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Debug("signup parse payload: %v", err)
		return a.writeError(ctx, ErrValidationFailed(TextCodeIncomplete, MsgIncomplete))
	}

	res, err := a.Lifecycle.Register(ctx.Context(), *payload)
	if err != nil {
		return a.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, Response{
		Success: true,
		Message: res.Message,
	})
}

func (a *HTTPController) Signin(ctx router.Context) error {
	payload := new(AuthenticateMessage)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Debug("signin parse payload: %v", err)
		return a.writeError(ctx, ErrValidationFailed(TextCodeAccountRequired, MsgAccountRequired))
	}

	res, err := a.Lifecycle.Authenticate(ctx.Context(), *payload)
	if err != nil {
		return a.writeError(ctx, err)
	}

	if err := a.Sessions.Save(ctx, res.Session); err != nil {
		return a.writeError(ctx, ErrInternal(err, "failed to store session"))
	}

	return ctx.JSON(http.StatusOK, Response{
		Success: true,
		Message: res.Message,
		Data: SigninData{
			IsAdmin:     res.IsAdmin,
			UserInfo:    res.User,
			AccessToken: res.AccessToken,
			Token:       res.Token,
		},
	})
}

// Signout destroys the session and always reports success
func (a *HTTPController) Signout(ctx router.Context) error {
	in, err := a.Sessions.Load(ctx)
	if err != nil {
		a.Logger.Debug("signout load session: %v", err)
	}

	res := a.Lifecycle.SignOut(ctx.Context(), in)

	if err := a.Sessions.Destroy(ctx); err != nil {
		a.Logger.Warn("signout destroy session: %v", err)
	}

	return ctx.JSON(http.StatusOK, Response{
		Success: true,
		Message: res.Message,
	})
}

func (a *HTTPController) Verify(ctx router.Context) error {
	in, err := a.Sessions.Load(ctx)
	if err != nil {
		a.Logger.Debug("verify load session: %v", err)
	}

	res, err := a.Lifecycle.ReVerify(ctx.Context(), in)
	if err != nil {
		return a.writeError(ctx, err)
	}

	if err := a.Sessions.Save(ctx, res.Session); err != nil {
		return a.writeError(ctx, ErrInternal(err, "failed to store session"))
	}

	return ctx.JSON(http.StatusOK, Response{
		Success: true,
		Message: res.Message,
		Data: VerifyData{
			UserInfo:    res.User,
			AccessToken: res.AccessToken,
			Token:       res.Token,
		},
	})
}

// Activate answers 200 for every business outcome, success reports
// whether the account was activated. Internal errors answer 500.
func (a *HTTPController) Activate(ctx router.Context) error {
	msg := ActivateAccountMessage{
		Account: ctx.Query("account"),
		Key:     ctx.Query("key"),
	}

	res, err := a.Lifecycle.Activate(ctx.Context(), msg)
	if err != nil {
		if IsInternal(err) {
			return a.writeError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, Response{
			Success: false,
			Message: PublicMessage(err),
		})
	}

	return ctx.JSON(http.StatusOK, Response{
		Success: true,
		Message: res.Message,
	})
}

// RequireSession rejects requests without a valid session. On success the
// Principal is stored in the request context.
func (a *HTTPController) RequireSession() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			in, err := a.Sessions.Load(ctx)
			if err != nil {
				a.Logger.Debug("guard load session: %v", err)
			}

			res, err := a.Lifecycle.ReVerify(ctx.Context(), in)
			if err != nil {
				return a.writeError(ctx, err)
			}

			ctx.SetContext(WithPrincipal(ctx.Context(), Principal{
				Account: res.Account,
				IsAdmin: res.IsAdmin,
				Profile: res.User,
			}))

			return next(ctx)
		}
	}
}

// Me returns the profile of the signed in account
func (a *HTTPController) Me(ctx router.Context) error {
	p, ok := PrincipalFromContext(ctx.Context())
	if !ok {
		return a.writeError(ctx, ErrAuthFailed(TextCodeAuthenticationFailed, MsgAuthenticationFailed))
	}

	return ctx.JSON(http.StatusOK, Response{
		Success: true,
		Data: MeData{
			Account:  p.Account,
			IsAdmin:  p.IsAdmin,
			UserInfo: p.Profile,
		},
	})
}

func (a *HTTPController) writeError(ctx router.Context, err error) error {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		a.Logger.Error("account request failed: %v", err)
	} else if a.Debug {
		a.Logger.Debug("account request rejected: %v", err)
	}

	return ctx.JSON(status, Response{
		Success: false,
		Message: PublicMessage(err),
	})
}
