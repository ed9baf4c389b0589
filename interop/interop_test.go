package interop

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/sinapp/apperr"
	"github.com/hazyhaar/sinapp/horosafe"
	"github.com/hazyhaar/sinapp/idgen"
	"github.com/hazyhaar/sinapp/steps"
	"github.com/hazyhaar/sinapp/wizard"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func completeContext(t *testing.T, doc steps.DocumentType) wizard.Context {
	dob, err := steps.ParseDate("1990-01-02")
	require.NoError(t, err)
	return wizard.Context{
		PrivacyStatement:    &steps.PrivacyStatement{AgreedToTerms: true},
		RequestDetails:      &steps.RequestDetails{Type: steps.RequestFirstTime, Scenario: steps.ScenarioForSelf},
		PrimaryDocuments:    &steps.PrimaryDocuments{CurrentStatusInCanada: steps.StatusCitizenBornInCanada, DocumentType: doc, RegistrationNumber: "A1", GivenName: "Ana", LastName: "Lee", DateOfBirth: dob},
		SecondaryDocument:   &steps.SecondaryDocument{DocumentType: steps.SecondaryPassport, DocumentNumber: "P1", ExpiryDate: dob},
		PreviousSin:         &steps.PreviousSin{HasPreviousSin: steps.PreviousSinNo},
		PersonalInformation: &steps.PersonalInformation{LastNameAtBirth: "Lee", Gender: steps.GenderFemale},
		CurrentName:         &steps.CurrentName{PreferredSameAsDocumentName: true},
		BirthDetails:        &steps.BirthDetails{Country: "CAN", Province: "ON", City: "Ottawa"},
		ParentDetails:       &steps.ParentDetails{Parents: []steps.Parent{{Unavailable: true}}},
		ContactInformation:  &steps.ContactInformation{PreferredLanguage: steps.LanguageEnglish, PrimaryPhone: "6135550100", Country: "CAN", Address: "1 Main", City: "Ottawa", Province: "ON", PostalCode: "K1A 0B1"},
	}
}

func TestNewApplication(t *testing.T) {
	app, err := NewApplication(completeContext(t, steps.DocBirthCertificate), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", app.SubmittedBy)
	assert.NotNil(t, app.SecondaryDocument)

	app, err = NewApplication(completeContext(t, steps.DocCitizenshipCertificate), "u1")
	require.NoError(t, err)
	assert.Nil(t, app.SecondaryDocument, "stale secondary document is not sent")
}

func TestNewApplication_Incomplete(t *testing.T) {
	c := completeContext(t, steps.DocBirthCertificate)
	c.SecondaryDocument = nil
	c.BirthDetails = nil

	_, err := NewApplication(c, "u1")
	assert.Equal(t, apperr.CodeIncompleteApplication, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "secondaryDocument, birthDetails")
}

func newClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL + "/api/"
	opts.AllowPrivate = true
	c, err := NewClient(opts, quiet())
	require.NoError(t, err)
	return c
}

func TestClient_CreateCase(t *testing.T) {
	var got Application
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/person-cases", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"caseId":"C-42"}`))
	}, Options{APIKey: "k"})

	app, err := NewApplication(completeContext(t, steps.DocCitizenshipCertificate), "u1")
	require.NoError(t, err)

	id, err := c.CreateCase(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, "C-42", id)
	assert.Equal(t, "Lee", got.PrimaryDocuments.LastName)
}

func TestClient_UpstreamErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"validation failed"}`, http.StatusUnprocessableEntity)
	}, Options{})

	_, err := c.CreateCase(context.Background(), Application{})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInteropAPI, ae.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.UpstreamCode)
	assert.Equal(t, http.StatusBadGateway, ae.HTTPStatus)
	assert.Contains(t, ae.ResponseBody, "validation failed")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_BadResponseBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}, Options{})
	_, err := c.CreateCase(context.Background(), Application{})
	assert.Equal(t, apperr.CodeInteropAPI, apperr.CodeOf(err))
}

func TestClient_Timeout(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, Options{Timeout: 50 * time.Millisecond})

	_, err := c.CreateCase(context.Background(), Application{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_BreakerOpensOn5xx(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, Options{BreakerThreshold: 2, BreakerCooldown: time.Hour})

	for range 2 {
		_, err := c.CreateCase(context.Background(), Application{})
		require.Error(t, err)
	}
	_, err := c.CreateCase(context.Background(), Application{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, BreakerOpen, c.Breaker().State())
}

func TestNewClient_RejectsPrivateEndpoint(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "http://127.0.0.1:9"}, quiet())
	assert.ErrorIs(t, err, horosafe.ErrSSRF)
}

func TestBreaker_HalfOpen(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	fail := errors.New("down")
	h := b.Middleware()(func(context.Context, []byte) ([]byte, error) { return nil, fail })
	ok := b.Middleware()(func(context.Context, []byte) ([]byte, error) { return []byte("ok"), nil })

	_, err := h(context.Background(), nil)
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, BreakerOpen, b.State())

	now = now.Add(time.Minute)
	assert.Equal(t, BreakerHalfOpen, b.State())
	_, err = ok(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_4xxDoesNotTrip(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	h := b.Middleware()(func(context.Context, []byte) ([]byte, error) {
		return nil, &StatusError{Status: 400}
	})
	h(context.Background(), nil)
	h(context.Background(), nil)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestRecovery(t *testing.T) {
	h := Recovery(quiet())(func(context.Context, []byte) ([]byte, error) { panic("boom") })
	_, err := h(context.Background(), nil)
	assert.ErrorContains(t, err, "boom")
}

func TestFake(t *testing.T) {
	f := NewFake(idgen.Sequence("0000000001", "0000000002"))
	id, err := f.CreateCase(context.Background(), Application{SubmittedBy: "u"})
	require.NoError(t, err)
	assert.Equal(t, "0000000001", id)
	assert.Len(t, f.Created(), 1)

	f.FailWith(apperr.Upstream(503, "down", nil))
	_, err = f.CreateCase(context.Background(), Application{})
	assert.Equal(t, apperr.CodeInteropAPI, apperr.CodeOf(err))
}
