package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// --- Types for the users REST API ---

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type APIErrorResponse struct {
	Message string `json:"message"`
}

var authHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

// authLogin calls the users API POST /api/users/login.
func (fe *frontendServer) authLogin(email, password string) (*LoginResponse, error) {
	body, _ := json.Marshal(LoginRequest{Email: email, Password: password})
	resp, err := authHTTPClient.Post(
		fmt.Sprintf("http://%s/api/users/login", fe.usersSvcAddr),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return nil, fmt.Errorf("users service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp APIErrorResponse
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Message != "" {
			return nil, fmt.Errorf("%s", errResp.Message)
		}
		return nil, fmt.Errorf("login failed (status %d)", resp.StatusCode)
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return &result, nil
}

// authRegister calls the users API POST /api/users/register.
func (fe *frontendServer) authRegister(req RegisterRequest) error {
	body, _ := json.Marshal(req)
	resp, err := authHTTPClient.Post(
		fmt.Sprintf("http://%s/api/users/register", fe.usersSvcAddr),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return fmt.Errorf("users service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errResp APIErrorResponse
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Message != "" {
			return fmt.Errorf("%s", errResp.Message)
		}
		return fmt.Errorf("registration failed (status %d)", resp.StatusCode)
	}
	return nil
}

// authGetProfile calls the users API GET /api/users/profile. The profile
// carries the persisted cart, used to hydrate the session's mirror.
func (fe *frontendServer) authGetProfile(ctx context.Context, token string) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://%s/api/users/profile", fe.usersSvcAddr), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := authHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("users service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get profile (status %d)", resp.StatusCode)
	}

	var profile UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	return &profile, nil
}
