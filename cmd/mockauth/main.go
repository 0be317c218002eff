// This is a **mock authentication service** for local development: it
// mints bearer tokens for a given user id so the dashboards can talk to
// the work-order API without the real identity collaborator.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/auth"
	"github.com/google/uuid"
)

const (
	defaultPort   = "8081"
	defaultSecret = "change-me"
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
}

// tokenHandler generates a token for the user id in ?user= and returns
// it in a JSON response.
func tokenHandler(w http.ResponseWriter, r *http.Request) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = defaultSecret
	}

	userID, err := uuid.Parse(r.URL.Query().Get("user"))
	if err != nil {
		http.Error(w, "user query parameter must be a valid user id", http.StatusBadRequest)
		return
	}

	token, err := auth.GenerateToken(userID, secret)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	resp := TokenResponse{Token: token}
	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		http.Error(w, "Failed to encode token", http.StatusInternalServerError)
	}
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	http.HandleFunc("/token", tokenHandler)

	log.Printf("Mock authentication service running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
