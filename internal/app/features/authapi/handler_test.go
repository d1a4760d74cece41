package authapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/features/authapi"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/mailer"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/dalemusser/communityhub/internal/app/system/signin"
	"github.com/dalemusser/communityhub/internal/app/system/workers"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	h    *authapi.Handler
	db   *mongo.Database
	fx   *testutil.Fixtures
	mail *testutil.MailRecorder
	jobs *workers.Runner
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	mail := &testutil.MailRecorder{}
	lim := ratelimit.NewAuthLimiter(100, time.Minute)
	t.Cleanup(lim.Stop)
	jobs := workers.NewRunner(zap.NewNop())
	t.Cleanup(jobs.Stop)
	h := authapi.NewHandler(db, testutil.TokenManager(), mail, nil, lim,
		authapi.Options{SiteName: "CommunityHub", Jobs: jobs}, zap.NewNop())
	return env{h: h, db: db, fx: testutil.NewFixtures(t, db), mail: mail, jobs: jobs}
}

func (e env) call(t *testing.T, fn http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, testutil.JSONRequest(t, http.MethodPost, "/api/v1/auth", body))
	return rec
}

func (e env) storedUser(t *testing.T, email string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := userstore.New(e.db).GetByEmail(ctx, email)
	if err != nil {
		t.Fatalf("load user %s: %v", email, err)
	}
	return u
}

func validRegistration(email, mobile string) map[string]any {
	return map[string]any{
		"name":         "Asha Rao",
		"email":        email,
		"mobileNumber": mobile,
		"password":     "Secret123",
	}
}

func TestRegister_CreatesPendingUserAndSendsOTP(t *testing.T) {
	e := newEnv(t)

	rec := e.call(t, e.h.Register, validRegistration("Asha@Example.com", "9876543210"))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var res struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
	}
	testutil.DecodeResult(t, rec, &res)
	if res.UserID == "" || res.Email != "asha@example.com" {
		t.Errorf("unexpected result: %+v", res)
	}

	u := e.storedUser(t, "asha@example.com")
	if u.Status != models.UserPending || u.Role != models.RoleUser || u.CountryCode != "+91" {
		t.Errorf("unexpected stored user: status=%q role=%q cc=%q", u.Status, u.Role, u.CountryCode)
	}
	if u.OTP == nil || len(*u.OTP) != 6 || u.OTPExpiry == nil {
		t.Fatalf("expected otp to be stored, got %v %v", u.OTP, u.OTPExpiry)
	}
	if d := time.Until(*u.OTPExpiry); d < 9*time.Minute || d > 11*time.Minute {
		t.Errorf("expected ~10 minute expiry, got %v", d)
	}

	e.jobs.Drain()
	sent := e.mail.Sent()
	if len(sent) != 1 || sent[0].To != "asha@example.com" || !strings.Contains(sent[0].TextBody, *u.OTP) {
		t.Errorf("expected otp email, got %+v", sent)
	}
}

// gatedSender holds every Send until release is closed.
type gatedSender struct {
	release chan struct{}
	rec     testutil.MailRecorder
}

func (g *gatedSender) Send(ctx context.Context, e mailer.Email) error {
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.rec.Send(ctx, e)
}

func TestRegisterAndForgotPassword_DoNotWaitForEmail(t *testing.T) {
	e := newEnv(t)
	gate := &gatedSender{release: make(chan struct{})}
	e.h.Mailer = gate

	testutil.AssertStatus(t, e.call(t, e.h.Register, validRegistration("slow@example.com", "9000000017")), http.StatusCreated)
	if u := e.storedUser(t, "slow@example.com"); u.OTP == nil {
		t.Fatal("expected otp stored before the response")
	}
	testutil.AssertStatus(t, e.call(t, e.h.ForgotPassword, map[string]string{"email": "slow@example.com"}), http.StatusOK)
	if n := len(gate.rec.Sent()); n != 0 {
		t.Fatalf("expected emails still queued, got %d sent", n)
	}

	close(gate.release)
	e.jobs.Drain()
	sent := gate.rec.Sent()
	if len(sent) != 2 || sent[0].To != "slow@example.com" || sent[1].To != "slow@example.com" {
		t.Errorf("expected both queued emails delivered, got %+v", sent)
	}
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	e := newEnv(t)
	testutil.AssertStatus(t, e.call(t, e.h.Register, validRegistration("a@example.com", "9000000001")), http.StatusCreated)

	for name, body := range map[string]map[string]any{
		"email":  validRegistration("A@example.com", "9000000002"),
		"mobile": validRegistration("b@example.com", "9000000001"),
	} {
		rec := e.call(t, e.h.Register, body)
		testutil.AssertStatus(t, rec, http.StatusBadRequest)
		if env := testutil.DecodeEnvelope(t, rec); !strings.Contains(env.Message, "already exists") {
			t.Errorf("%s: unexpected message %q", name, env.Message)
		}
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	e := newEnv(t)

	rec := e.call(t, e.h.Register, map[string]any{"email": "not-an-email", "mobileNumber": "123", "password": "weak"})
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	env := testutil.DecodeEnvelope(t, rec)
	fields := map[string]bool{}
	for _, fe := range env.Errors {
		fields[fe.Field] = true
	}
	for _, f := range []string{"name", "email", "mobileNumber", "password"} {
		if !fields[f] {
			t.Errorf("expected field error for %s, got %+v", f, env.Errors)
		}
	}
}

func TestRegister_RejectsPasswordOverBcryptLimit(t *testing.T) {
	e := newEnv(t)

	body := validRegistration("long@example.com", "9000000018")
	body["password"] = "Aa1" + strings.Repeat("é", 69)
	rec := e.call(t, e.h.Register, body)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	env := testutil.DecodeEnvelope(t, rec)
	if len(env.Errors) != 1 || env.Errors[0].Field != "password" {
		t.Fatalf("expected a password field error, got %+v", env.Errors)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := userstore.New(e.db).GetByEmail(ctx, "long@example.com"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected no user to be stored, got %v", err)
	}
}

func TestRegister_EmailFailureStillSucceeds(t *testing.T) {
	e := newEnv(t)
	e.mail.Err = errors.New("smtp down")

	rec := e.call(t, e.h.Register, validRegistration("c@example.com", "9000000003"))
	testutil.AssertStatus(t, rec, http.StatusCreated)
	if u := e.storedUser(t, "c@example.com"); u.OTP == nil {
		t.Error("expected otp stored even though email failed")
	}
}

func TestRegister_ElevatedRoleRequiresOptIn(t *testing.T) {
	e := newEnv(t)
	body := validRegistration("d@example.com", "9000000004")
	body["role"] = models.RoleAdmin

	testutil.AssertStatus(t, e.call(t, e.h.Register, body), http.StatusForbidden)

	e.h.AllowRoleSignup = true
	testutil.AssertStatus(t, e.call(t, e.h.Register, body), http.StatusCreated)
	if u := e.storedUser(t, "d@example.com"); u.Role != models.RoleAdmin {
		t.Errorf("expected Admin role, got %q", u.Role)
	}
}

func register(t *testing.T, e env, email, mobile string) models.User {
	t.Helper()
	testutil.AssertStatus(t, e.call(t, e.h.Register, validRegistration(email, mobile)), http.StatusCreated)
	return e.storedUser(t, email)
}

func TestVerifyOTP_Flow(t *testing.T) {
	e := newEnv(t)
	u := register(t, e, "v@example.com", "9000000010")

	testutil.AssertStatus(t, e.call(t, e.h.VerifyOTP, map[string]string{"email": "nobody@example.com", "otp": "123456"}), http.StatusNotFound)

	wrong := "000000"
	if *u.OTP == wrong {
		wrong = "111111"
	}
	rec := e.call(t, e.h.VerifyOTP, map[string]string{"email": "v@example.com", "otp": wrong})
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if env := testutil.DecodeEnvelope(t, rec); env.Message != "Invalid OTP" {
		t.Errorf("unexpected message %q", env.Message)
	}

	rec = e.call(t, e.h.VerifyOTP, map[string]string{"email": "v@example.com", "otp": *u.OTP})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var res signin.Result
	testutil.DecodeResult(t, rec, &res)
	if res.AccessToken == "" || res.RefreshToken == "" || res.TokenExpiry != 900 {
		t.Errorf("unexpected token envelope: %+v", res)
	}
	if res.User.Status != models.UserActive || !res.User.IsEmailVerified {
		t.Errorf("expected active verified user, got %+v", res.User)
	}
	if strings.Contains(rec.Body.String(), "password") || strings.Contains(rec.Body.String(), `"otp"`) {
		t.Errorf("response leaks secrets: %s", rec.Body.String())
	}

	stored := e.storedUser(t, "v@example.com")
	if stored.OTP != nil || stored.OTPExpiry != nil {
		t.Error("expected otp fields cleared")
	}

	rec = e.call(t, e.h.VerifyOTP, map[string]string{"email": "v@example.com", "otp": *u.OTP})
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if env := testutil.DecodeEnvelope(t, rec); env.Message != "User already verified" {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestVerifyOTP_ExpiryIsStrict(t *testing.T) {
	e := newEnv(t)
	u := register(t, e, "x@example.com", "9000000011")
	expiry := *u.OTPExpiry

	e.h.Now = func() time.Time { return expiry.Add(time.Millisecond) }
	rec := e.call(t, e.h.VerifyOTP, map[string]string{"email": "x@example.com", "otp": *u.OTP})
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if env := testutil.DecodeEnvelope(t, rec); env.Message != "OTP expired" {
		t.Errorf("unexpected message %q", env.Message)
	}

	e.h.Now = func() time.Time { return expiry }
	testutil.AssertStatus(t, e.call(t, e.h.VerifyOTP, map[string]string{"email": "x@example.com", "otp": *u.OTP}), http.StatusOK)
}

func TestVerifyOTP_SweptCodeReportsExpired(t *testing.T) {
	e := newEnv(t)
	u := register(t, e, "swept@example.com", "9000000019")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	later := u.OTPExpiry.Add(time.Minute)
	if _, err := userstore.New(e.db).ClearExpiredOTPs(ctx, later); err != nil {
		t.Fatalf("ClearExpiredOTPs failed: %v", err)
	}
	e.h.Now = func() time.Time { return later }

	rec := e.call(t, e.h.VerifyOTP, map[string]string{"email": "swept@example.com", "otp": *u.OTP})
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if env := testutil.DecodeEnvelope(t, rec); env.Message != "OTP expired" {
		t.Errorf("unexpected message %q", env.Message)
	}

	rec = e.call(t, e.h.ResetPassword, map[string]string{"email": "swept@example.com", "otp": *u.OTP, "newPassword": "Newpass123"})
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if env := testutil.DecodeEnvelope(t, rec); env.Message != "OTP expired" {
		t.Errorf("unexpected reset message %q", env.Message)
	}
}

func TestResendOTP(t *testing.T) {
	e := newEnv(t)
	first := register(t, e, "r@example.com", "9000000012")
	e.jobs.Drain()

	testutil.AssertStatus(t, e.call(t, e.h.ResendOTP, map[string]string{"email": "r@example.com"}), http.StatusOK)
	if len(e.mail.Sent()) != 2 {
		t.Errorf("expected a second email, got %d", len(e.mail.Sent()))
	}
	if again := e.storedUser(t, "r@example.com"); !again.OTPExpiry.After(*first.OTPExpiry) && *again.OTP == *first.OTP {
		t.Error("expected a fresh otp")
	}

	e.mail.Err = errors.New("smtp down")
	testutil.AssertStatus(t, e.call(t, e.h.ResendOTP, map[string]string{"email": "r@example.com"}), http.StatusInternalServerError)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	verified := e.fx.CreateActiveUser(ctx, "Done", "done@example.com")
	rec := e.call(t, e.h.ResendOTP, map[string]string{"email": verified.Email})
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestLogin_Outcomes(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	active := e.fx.CreateActiveUser(ctx, "Active", "active@example.com")
	e.fx.CreateUser(ctx, "Blocked", "blocked@example.com", models.RoleUser, models.UserBlocked)

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"no identifier", map[string]string{"password": testutil.DefaultPassword}, http.StatusBadRequest},
		{"unknown", map[string]string{"email": "ghost@example.com", "password": testutil.DefaultPassword}, http.StatusNotFound},
		{"inactive", map[string]string{"email": "blocked@example.com", "password": testutil.DefaultPassword}, http.StatusBadRequest},
		{"wrong password", map[string]string{"email": "active@example.com", "password": "Wrong1234"}, http.StatusUnauthorized},
		{"email", map[string]string{"email": "ACTIVE@example.com", "password": testutil.DefaultPassword}, http.StatusOK},
		{"mobile", map[string]string{"mobileNumber": active.MobileNumber, "password": testutil.DefaultPassword}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.AssertStatus(t, e.call(t, e.h.Login, tc.body), tc.want)
		})
	}

	if u := e.storedUser(t, "active@example.com"); u.LastLogin == nil {
		t.Error("expected last_login to be set")
	}
}

func TestLogin_RateLimited(t *testing.T) {
	e := newEnv(t)
	lim := ratelimit.NewAuthLimiter(2, time.Minute)
	t.Cleanup(lim.Stop)
	e.h.Limiter = lim

	body := map[string]string{"email": "ghost@example.com", "password": "Wrong1234"}
	e.call(t, e.h.Login, body)
	e.call(t, e.h.Login, body)
	testutil.AssertStatus(t, e.call(t, e.h.Login, body), http.StatusTooManyRequests)
}

func login(t *testing.T, e env, email string) signin.Result {
	t.Helper()
	rec := e.call(t, e.h.Login, map[string]string{"email": email, "password": testutil.DefaultPassword})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var res signin.Result
	testutil.DecodeResult(t, rec, &res)
	return res
}

func TestRefreshToken_SingleActiveSession(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateActiveUser(ctx, "Ravi", "ravi@example.com")

	first := login(t, e, "ravi@example.com")
	rec := e.call(t, e.h.RefreshToken, map[string]string{"refreshToken": first.RefreshToken})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var res struct {
		AccessToken string `json:"accessToken"`
		TokenExpiry int64  `json:"tokenExpiry"`
	}
	testutil.DecodeResult(t, rec, &res)
	if res.AccessToken == "" || res.TokenExpiry != 900 {
		t.Errorf("unexpected refresh result: %+v", res)
	}

	second := login(t, e, "ravi@example.com")
	testutil.AssertStatus(t, e.call(t, e.h.RefreshToken, map[string]string{"refreshToken": first.RefreshToken}), http.StatusUnauthorized)
	testutil.AssertStatus(t, e.call(t, e.h.RefreshToken, map[string]string{"refreshToken": second.RefreshToken}), http.StatusOK)

	testutil.AssertStatus(t, e.call(t, e.h.RefreshToken, map[string]string{"refreshToken": "garbage"}), http.StatusUnauthorized)
	// An access token is signed with a different secret.
	testutil.AssertStatus(t, e.call(t, e.h.RefreshToken, map[string]string{"refreshToken": second.AccessToken}), http.StatusUnauthorized)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fx.CreateActiveUser(ctx, "Meera", "meera@example.com")

	res := login(t, e, "meera@example.com")

	rec := httptest.NewRecorder()
	e.h.Logout(rec, testutil.WithUser(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), u))
	testutil.AssertStatus(t, rec, http.StatusOK)

	testutil.AssertStatus(t, e.call(t, e.h.RefreshToken, map[string]string{"refreshToken": res.RefreshToken}), http.StatusUnauthorized)

	rec = httptest.NewRecorder()
	e.h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestRefreshToken_BlockedUserRejected(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fx.CreateActiveUser(ctx, "Kiran", "kiran@example.com")
	res := login(t, e, "kiran@example.com")

	if _, err := e.db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"status": models.UserBlocked}}); err != nil {
		t.Fatalf("block user: %v", err)
	}
	testutil.AssertStatus(t, e.call(t, e.h.RefreshToken, map[string]string{"refreshToken": res.RefreshToken}), http.StatusUnauthorized)
}

func TestProfile(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fx.CreateActiveUser(ctx, "Priya", "priya@example.com")

	rec := httptest.NewRecorder()
	e.h.Profile(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil), u))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var got models.User
	testutil.DecodeResult(t, rec, &got)
	if got.ID != u.ID || got.Email != u.Email || got.PasswordHash != "" {
		t.Errorf("unexpected profile: %+v", got)
	}
}

func TestPasswordReset_Flow(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateActiveUser(ctx, "Nina", "nina@example.com")
	old := login(t, e, "nina@example.com")

	testutil.AssertStatus(t, e.call(t, e.h.ForgotPassword, map[string]string{"email": "nobody@example.com"}), http.StatusNotFound)
	testutil.AssertStatus(t, e.call(t, e.h.ForgotPassword, map[string]string{"email": "nina@example.com"}), http.StatusOK)
	code := *e.storedUser(t, "nina@example.com").OTP

	bad := map[string]string{"email": "nina@example.com", "otp": "000000", "newPassword": "Newpass123"}
	if code == "000000" {
		bad["otp"] = "111111"
	}
	testutil.AssertStatus(t, e.call(t, e.h.ResetPassword, bad), http.StatusBadRequest)

	weak := map[string]string{"email": "nina@example.com", "otp": code, "newPassword": "alllowercase"}
	testutil.AssertStatus(t, e.call(t, e.h.ResetPassword, weak), http.StatusBadRequest)

	ok := map[string]string{"email": "nina@example.com", "otp": code, "newPassword": "Newpass123"}
	testutil.AssertStatus(t, e.call(t, e.h.ResetPassword, ok), http.StatusOK)

	testutil.AssertStatus(t, e.call(t, e.h.RefreshToken, map[string]string{"refreshToken": old.RefreshToken}), http.StatusUnauthorized)
	testutil.AssertStatus(t, e.call(t, e.h.Login, map[string]string{"email": "nina@example.com", "password": testutil.DefaultPassword}), http.StatusUnauthorized)
	testutil.AssertStatus(t, e.call(t, e.h.Login, map[string]string{"email": "nina@example.com", "password": "Newpass123"}), http.StatusOK)

	// The code is single use.
	testutil.AssertStatus(t, e.call(t, e.h.ResetPassword, ok), http.StatusBadRequest)
}
