// Command smoke drives a full donation lifecycle against a running server
// and fails when any step returns an unexpected status or terminal state.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lifeline-health/lifeline-api/internal/models"
)

type actor struct {
	id    string
	name  string
	role  models.UserRole
	token string
}

type runner struct {
	client *http.Client
	base   string
	steps  int
	failed int
}

func main() {
	var (
		base    string
		secret  string
		issuer  string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&secret, "secret", "dev_secret", "JWT signing secret")
	flag.StringVar(&issuer, "issuer", "lifeline-api", "JWT issuer")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	donor := mintActor(secret, issuer, models.RoleDonor, "Smoke Donor")
	patient := mintActor(secret, issuer, models.RolePatient, "Smoke Patient")
	hospital := mintActor(secret, issuer, models.RoleHospital, "Smoke Hospital")

	r := &runner{client: &http.Client{Timeout: timeout}, base: strings.TrimRight(base, "/")}

	intent := r.post(donor, "/api/v1/donations/intents", map[string]any{
		"organ_type":          "KIDNEY",
		"donor_hospital_name": "Smoke General",
	}, http.StatusCreated)
	intentID := stringField(intent, "id")

	r.post(hospital, "/api/v1/donations/intents/"+intentID+"/verify", nil, http.StatusOK)

	match := r.post(hospital, "/api/v1/donations/matches", map[string]any{
		"intent_id":             intentID,
		"patient_id":            patient.id,
		"patient_name":          patient.name,
		"patient_hospital_name": "Smoke General",
	}, http.StatusCreated)
	matchID := stringField(match, "id")

	r.post(patient, "/api/v1/donations/matches/"+matchID+"/accept", nil, http.StatusOK)
	accepted := r.post(donor, "/api/v1/donations/matches/"+matchID+"/accept", nil, http.StatusOK)
	r.expect(stringField(accepted, "state") == string(models.MatchStateConfirmed),
		"match should be CONFIRMED after both acceptances, got %s", stringField(accepted, "state"))

	r.post(hospital, "/api/v1/donations/matches/"+matchID+"/payment", nil, http.StatusOK)
	completed := r.post(hospital, "/api/v1/donations/matches/"+matchID+"/complete", nil, http.StatusOK)
	r.expect(stringField(completed, "state") == string(models.MatchStateCompleted),
		"match should be COMPLETED, got %s", stringField(completed, "state"))

	finalIntent := r.get(donor, "/api/v1/donations/intents/"+intentID, http.StatusOK)
	r.expect(stringField(finalIntent, "status") == string(models.IntentStatusCompleted),
		"intent should be COMPLETED, got %s", stringField(finalIntent, "status"))

	// Certificates render on a background queue, give it a moment.
	certificateReady := false
	for attempt := 0; attempt < 10; attempt++ {
		current := r.get(donor, "/api/v1/donations/intents/"+intentID, http.StatusOK)
		if ready, ok := current["certificate_ready"].(bool); ok && ready {
			certificateReady = true
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	r.expect(certificateReady, "certificate was not rendered in time")
	if certificateReady {
		r.get(donor, "/api/v1/donations/intents/"+intentID+"/certificate", http.StatusOK)
	}

	for _, a := range []actor{donor, patient, hospital} {
		badge := r.get(a, "/api/v1/notifications/unread-count", http.StatusOK)
		if unread, ok := badge["unread"].(float64); !ok || unread == 0 {
			r.expect(false, "%s should have unread notifications", a.role)
		}
	}

	fmt.Printf("Steps: %d, Failures: %d\n", r.steps, r.failed)
	if r.failed > 0 {
		os.Exit(1)
	}
}

func mintActor(secret, issuer string, role models.UserRole, name string) actor {
	id := uuid.NewString()
	claims := models.JWTClaims{
		UserID:   id,
		Role:     role,
		FullName: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("failed to sign %s token: %v", role, err)
	}
	return actor{id: id, name: name, role: role, token: token}
}

func (r *runner) post(a actor, path string, payload any, wantStatus int) map[string]any {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("failed to encode payload for %s: %v", path, err)
		}
		body = bytes.NewReader(raw)
	}
	return r.do(a, http.MethodPost, path, body, wantStatus)
}

func (r *runner) get(a actor, path string, wantStatus int) map[string]any {
	return r.do(a, http.MethodGet, path, nil, wantStatus)
}

func (r *runner) do(a actor, method, path string, body io.Reader, wantStatus int) map[string]any {
	r.steps++

	req, err := http.NewRequest(method, r.base+path, body)
	if err != nil {
		log.Fatalf("failed to build request %s %s: %v", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("failed to read response for %s %s: %v", method, path, err)
	}

	status := "OK"
	if resp.StatusCode != wantStatus {
		status = "FAIL"
		r.failed++
	}
	fmt.Printf("[%s] %s %s -> %d (want %d)\n", status, method, path, resp.StatusCode, wantStatus)
	if status == "FAIL" {
		fmt.Printf("  body: %s\n", strings.TrimSpace(string(raw)))
		return map[string]any{}
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return map[string]any{}
	}
	return envelope.Data
}

func (r *runner) expect(ok bool, format string, args ...any) {
	r.steps++
	if ok {
		return
	}
	r.failed++
	fmt.Printf("[FAIL] %s\n", fmt.Sprintf(format, args...))
}

func stringField(data map[string]any, key string) string {
	value, _ := data[key].(string)
	return value
}
