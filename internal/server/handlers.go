package server

import (
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/content"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/extract"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
)

// maxUploadBytes caps a multipart chat request held in memory.
const maxUploadBytes = 32 << 20

// chatRequest is the JSON body of POST /api/chat. Multipart requests
// carry the same fields as form values plus "files" parts.
type chatRequest struct {
	Message        string `json:"message"`
	Model          string `json:"model"`
	ConversationID string `json:"conversation_id"`
}

// chatResponse mirrors the shape the original service returned.
type chatResponse struct {
	ConversationID  string          `json:"conversation_id"`
	Messages        []store.Message `json:"messages"`
	NewConversation *store.Summary  `json:"new_conversation,omitempty"`
}

// handleChat accepts a user message (JSON, or multipart with files),
// persists it, runs the turn loop, and returns the updated dialogue.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, files, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	parts, err := content.Normalize(req.Message, files)
	if err != nil {
		if errors.Is(err, content.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "message or files required")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	// Resolve the conversation and its model before any write, so an
	// unknown provider rejects the request with nothing persisted.
	var (
		conversationID string
		modelID        string
		created        *store.Summary
	)
	if req.ConversationID != "" {
		conv, err := s.store.GetConversation(ctx, req.ConversationID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("load conversation")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		conversationID = conv.ID
		modelID = conv.Model
	} else {
		modelID = req.Model
	}

	if _, err := s.registry.ForModel(modelID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if conversationID == "" {
		sum, err := s.store.CreateConversation(ctx, conversationName(req.Message), modelID)
		if err != nil {
			log.Error().Err(err).Msg("create conversation")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		conversationID = sum.ID
		created = &sum
	}

	if err := s.store.AppendMessage(ctx, conversationID, store.RoleUser, parts); err != nil {
		log.Error().Err(err).Msg("persist user message")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.orchestrator.Respond(ctx, conversationID, modelID); err != nil {
		log.Error().Err(err).Str("conversation", conversationID).Msg("turn loop failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		log.Error().Err(err).Msg("reload conversation")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		ConversationID:  conversationID,
		Messages:        conv.Messages,
		NewConversation: created,
	})
}

// decodeChatRequest parses JSON or multipart chat input. Attached files
// run through the extractor immediately; unsupported types reject the
// whole request before anything is persisted.
func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, []content.File, bool) {
	var req chatRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		if err := decodeJSONBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return chatRequest{}, nil, false
		}
		return req, nil, true
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return chatRequest{}, nil, false
	}
	req.Message = r.FormValue("message")
	req.Model = r.FormValue("model")
	req.ConversationID = r.FormValue("conversation_id")

	var files []content.File
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable file upload")
				return chatRequest{}, nil, false
			}
			payload, fileType, err := s.extractor.Extract(header.Filename, f)
			f.Close()
			if err != nil {
				if errors.Is(err, extract.ErrUnsupportedType) {
					writeError(w, http.StatusBadRequest, err.Error())
					return chatRequest{}, nil, false
				}
				log.Error().Err(err).Str("file", header.Filename).Msg("extract upload")
				writeError(w, http.StatusInternalServerError, "file extraction failed")
				return chatRequest{}, nil, false
			}
			files = append(files, content.File{
				Name:      header.Filename,
				Payload:   payload,
				MediaType: fileType,
			})
		}
	}
	return req, files, true
}

// handleGetConversation returns one conversation with its messages.
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, err := s.store.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("load conversation")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// handleListConversations returns summaries, most recent first.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	sums, err := s.store.ListConversations(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list conversations")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sums == nil {
		sums = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, sums)
}

// conversationName derives a display name from the opening message.
func conversationName(message string) string {
	name := strings.TrimSpace(message)
	if name == "" {
		return "Conversation " + time.Now().UTC().Format("2006-01-02 15:04")
	}
	const maxLen = 48
	if len(name) > maxLen {
		name = strings.TrimSpace(name[:maxLen]) + "…"
	}
	return name
}
