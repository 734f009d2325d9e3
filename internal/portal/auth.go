package portal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aokihara/listing-engine/internal/domain"
	"github.com/aokihara/listing-engine/internal/driver"
	"github.com/aokihara/listing-engine/internal/otp"
)

// maxOTPAttempts bounds the one-time-passcode retry loop.
const maxOTPAttempts = 3

// Authenticator drives the sign-in protocol: credential steps, the OTP
// challenge, and account/region selection.
type Authenticator struct {
	baseURL string
	region  string
	budgets Budgets
	otpGen  otp.Generator
	logger  *zap.Logger
}

// NewAuthenticator creates an Authenticator. region may be empty when the
// portal account has a single marketplace.
func NewAuthenticator(baseURL, region string, budgets Budgets, otpGen otp.Generator, logger *zap.Logger) (*Authenticator, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: portal base url is required", domain.ErrValidation)
	}
	if otpGen == nil {
		return nil, fmt.Errorf("%w: otp generator is required", domain.ErrValidation)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Authenticator{
		baseURL: baseURL,
		region:  region,
		budgets: budgets.normalized(),
		otpGen:  otpGen,
		logger:  logger,
	}, nil
}

// SignIn authenticates the page's session. It returns nil when the session
// is usable, an AuthError for protocol failures, and driver errors (timeouts
// included) untouched.
func (a *Authenticator) SignIn(ctx context.Context, page driver.Page, creds domain.Credentials, accountName string) error {
	if !creds.Complete() {
		return &AuthError{Reason: ReasonMissingCredentials}
	}

	log := a.logger.With(zap.String("account", accountName))
	log.Info("signing in")

	if err := navigate(ctx, page, joinURL(a.baseURL, signInPath), a.budgets); err != nil {
		return err
	}

	prompted, err := probe(ctx, page, emailField, a.budgets)
	if err != nil {
		return err
	}
	if !prompted {
		log.Info("session already authenticated")
		return nil
	}

	if err := a.fillAndAdvance(ctx, page, emailField, creds.Email, continueButton); err != nil {
		return err
	}
	if err := a.fillAndAdvance(ctx, page, passwordField, creds.Password, signInButton); err != nil {
		return err
	}

	if err := a.solveOTP(ctx, page, creds.OTPSecret); err != nil {
		return err
	}

	if err := a.selectAccount(ctx, page, accountName); err != nil {
		return err
	}

	log.Info("sign-in complete")
	return nil
}

// fillAndAdvance fills one credential field and clicks the step's advance
// button.
func (a *Authenticator) fillAndAdvance(ctx context.Context, page driver.Page, field driver.Selector, value string, button driver.Selector) error {
	el, err := a.findRequired(ctx, page, field)
	if err != nil {
		return err
	}
	if err := fill(ctx, el, value, a.budgets); err != nil {
		return err
	}

	advance, err := a.findRequired(ctx, page, button)
	if err != nil {
		return err
	}
	return click(ctx, advance, a.budgets)
}

// solveOTP handles the one-time-passcode challenge. A missing prompt means
// the portal skipped the challenge for this session.
func (a *Authenticator) solveOTP(ctx context.Context, page driver.Page, secret string) error {
	challenged, err := probe(ctx, page, otpField, a.budgets)
	if err != nil {
		return err
	}
	if !challenged {
		return nil
	}

	a.logger.Info("otp challenge raised")

	for attempt := 1; attempt <= maxOTPAttempts; attempt++ {
		code, err := a.otpGen.Generate(secret)
		if err != nil {
			return &AuthError{Reason: ReasonOTPGenerate, Cause: err}
		}

		field, err := a.findRequired(ctx, page, otpField)
		if err != nil {
			return err
		}
		if err := fill(ctx, field, code, a.budgets); err != nil {
			return err
		}

		submit, err := a.findRequired(ctx, page, otpSubmit)
		if err != nil {
			return err
		}
		if err := click(ctx, submit, a.budgets); err != nil {
			return err
		}

		solved, err := waitGone(ctx, page, otpField, a.budgets)
		if err != nil {
			return err
		}
		if solved {
			a.logger.Info("otp challenge solved", zap.Int("attempt", attempt))
			return nil
		}

		a.logger.Warn("otp code rejected", zap.Int("attempt", attempt))
	}

	return &AuthError{Reason: ReasonOTPExhausted}
}

// selectAccount picks the seller account and region, then confirms.
func (a *Authenticator) selectAccount(ctx context.Context, page driver.Page, accountName string) error {
	tile, err := a.findRequired(ctx, page, accountTile(accountName))
	if err != nil {
		return err
	}
	if err := click(ctx, tile, a.budgets); err != nil {
		return err
	}

	if a.region != "" {
		region, err := a.findRequired(ctx, page, regionTile(a.region))
		if err != nil {
			return err
		}
		if err := click(ctx, region, a.budgets); err != nil {
			return err
		}
	}

	confirm, err := a.findRequired(ctx, page, accountConfirm)
	if err != nil {
		return err
	}
	if err := click(ctx, confirm, a.budgets); err != nil {
		return err
	}

	return waitLoad(ctx, page, a.budgets)
}

// findRequired locates a control the protocol cannot proceed without. A
// structural lookup failure becomes an AuthError naming the control; slow
// rendering stays a timeout and propagates untouched.
func (a *Authenticator) findRequired(ctx context.Context, page driver.Page, sel driver.Selector) (driver.Element, error) {
	el, err := find(ctx, page, sel, a.budgets)
	if err != nil {
		if driver.IsTimeout(err) {
			return nil, err
		}
		return nil, &AuthError{Reason: ControlNotFoundReason(sel.Name), Cause: err}
	}
	return el, nil
}
