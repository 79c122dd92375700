package api

import "clubintake/app/service/conversation"

type startResponse struct {
	SessionID       string `json:"session_id"`
	ResponseMessage string `json:"response_message"`
	NextStep        string `json:"next_step"`
}

type sendRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	// Pointer so that an empty message is a valid turn and a missing one is not
	Message *string `json:"message" validate:"required"`
}

type sendResponse struct {
	SessionID       string                    `json:"session_id"`
	ResponseMessage string                    `json:"response_message"`
	NextStep        string                    `json:"next_step"`
	ProfileData     *conversation.ProfileData `json:"profile_data"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
