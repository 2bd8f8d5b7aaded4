package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// handleLogin exchanges the configured admin credentials for a session
// token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.Password)) == 1
	if !userOK || !passOK {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	token, err := s.signToken(req.Username, "admin")
	if err != nil {
		logger.Error("signing session token", "error", err)
		writeError(w, http.StatusInternalServerError, "error while signing token")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

type issueKeyRequest struct {
	NodeID string `json:"node_id"`
	// NodeType is "datanode" or "client"; informational.
	NodeType string `json:"node_type"`
}

type issueKeyResponse struct {
	// Key is the node's fresh base64 AES-256 ticket key. Delivered
	// once; the node stores it in its own config.
	Key string `json:"key"`
}

// handleIssueKey registers a fresh symmetric key for a node. This is
// the first authenticated contact a node makes; every ticket minted for
// it afterwards seals under this key. Issued keys are recorded in the
// ledger so the keyring survives restarts.
func (s *Server) handleIssueKey(w http.ResponseWriter, r *http.Request) {
	var req issueKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NodeID == "" {
		writeError(w, http.StatusBadRequest, "node_id is required")
		return
	}
	key, err := s.mint.AddNodeKey(req.NodeID)
	if err != nil {
		logger.Error("issuing node key", "node_id", req.NodeID, "error", err)
		writeError(w, http.StatusInternalServerError, "error while generating node key")
		return
	}
	s.ledger.NodeKey(req.NodeID, key)
	logger.Info("issued ticket key", "node_id", req.NodeID, "node_type", req.NodeType)
	writeJSON(w, http.StatusOK, issueKeyResponse{Key: key})
}

// handleSnapshot serves the latest published metadata snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snaps.Latest())
}
