package cli

import (
	"fmt"
	"io"

	"foozam/internal/analytics"
	"foozam/internal/auth"

	"github.com/spf13/cobra"
)

type sessionView struct {
	Authenticated bool          `json:"authenticated"`
	User          *auth.Session `json:"user,omitempty"`
	LoginURL      string        `json:"loginUrl,omitempty"`
}

func (v sessionView) Text(w io.Writer) {
	switch {
	case v.User != nil:
		fmt.Fprintf(w, "Signed in as %s", v.User.DisplayName)
		if v.User.Email != "" {
			fmt.Fprintf(w, " <%s>", v.User.Email)
		}
		fmt.Fprintln(w)
		if !v.User.ExpiresAt.IsZero() {
			fmt.Fprintf(w, "Session expires %s\n", v.User.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
	case v.LoginURL != "":
		fmt.Fprintln(w, "Open this URL to sign in, then run `foozam login --token <token>`:")
		fmt.Fprintln(w, v.LoginURL)
	default:
		fmt.Fprintln(w, "Not signed in.")
	}
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var token, redirect string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a token from the identity provider",
		Long: `Without --token, print the identity provider URL. After signing in there,
pass the returned token with --token to start a session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.app
			out := output(rootOpts, cmd)
			if token == "" {
				if app.cfg.IdPLoginURL == "" {
					return NewExitError(ExitCommandError, "IDP_LOGIN_URL is not set")
				}
				return out.Success(sessionView{LoginURL: app.session.LoginURL(redirect)})
			}
			s, err := app.session.Callback(cmd.Context(), token)
			if err != nil {
				return WrapExitError(ExitFailure, "login failed", err)
			}
			return out.Success(sessionView{Authenticated: true, User: s})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token returned by the identity provider")
	cmd.Flags().StringVar(&redirect, "redirect", "", "redirect_uri passed to the identity provider")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.app.session.Logout(cmd.Context()); err != nil {
				return err
			}
			return output(rootOpts, cmd).Success(sessionView{})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.app.session.Load(cmd.Context())
			if err != nil {
				return err
			}
			return output(rootOpts, cmd).Success(sessionView{Authenticated: s != nil, User: s})
		},
	}
}

type consentView struct {
	analytics.Consent
}

func (v consentView) Text(w io.Writer) {
	choice := v.Choice
	if choice == "" {
		choice = "not chosen"
	}
	fmt.Fprintf(w, "Cookie consent: %s\n", choice)
	if v.OptedOut {
		fmt.Fprintln(w, "Anonymous analytics: off")
	} else {
		fmt.Fprintln(w, "Anonymous analytics: on")
	}
}

// NewPrivacyCommand creates the privacy command.
func NewPrivacyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "privacy [status|accept|decline|opt-in|opt-out]",
		Short:     "Show or change analytics consent",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"status", "accept", "decline", "opt-in", "opt-out"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tracker := rootOpts.app.tracker

			action := "status"
			if len(args) == 1 {
				action = args[0]
			}
			var err error
			switch action {
			case "accept":
				err = tracker.SetConsent(ctx, true)
			case "decline":
				err = tracker.SetConsent(ctx, false)
			case "opt-in":
				err = tracker.OptIn(ctx)
			case "opt-out":
				err = tracker.OptOut(ctx)
			}
			if err != nil {
				return err
			}

			consent, err := tracker.Consent(ctx)
			if err != nil {
				return err
			}
			return output(rootOpts, cmd).Success(consentView{consent})
		},
	}
}
