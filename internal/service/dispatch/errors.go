package dispatch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vladislavdragonenkov/ams/internal/domain"
)

// APIError — ошибка внешнего API с машинно-читаемым кодом.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	httpStatus int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus возвращает HTTP-статус для ошибки.
func (e *APIError) HTTPStatus() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func errUnknownOperation(opType string) *APIError {
	return &APIError{
		Code:       "unknown_operation",
		Message:    fmt.Sprintf("unsupported operation type %q", opType),
		httpStatus: http.StatusBadRequest,
	}
}

func errMalformedPayload(err error) *APIError {
	return &APIError{
		Code:       "malformed_payload",
		Message:    err.Error(),
		httpStatus: http.StatusBadRequest,
	}
}

// toAPIError переводит доменные ошибки в коды внешнего API.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	code := "internal"
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrAuctionNameRequired),
		errors.Is(err, domain.ErrTooFewParticipants),
		errors.Is(err, domain.ErrBidderRequired),
		errors.Is(err, domain.ErrBidAmountTooLow):
		code = "invalid_argument"
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAuctionNotFound):
		code = "auction_not_found"
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAuctionAlreadyExists):
		code = "auction_already_exists"
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAuctionNotInProgress):
		code = "auction_not_in_progress"
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAuctionInProgress):
		code = "auction_in_progress"
		status = http.StatusConflict
	case errors.Is(err, domain.ErrBidAlreadyPlaced):
		code = "bid_already_placed"
		status = http.StatusConflict
	case errors.Is(err, domain.ErrMaxParticipantsReached):
		code = "max_participants_reached"
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNoBidsFound):
		code = "no_bids"
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotEnoughBids):
		code = "not_enough_bids"
		status = http.StatusConflict
	}

	return &APIError{
		Code:       code,
		Message:    err.Error(),
		httpStatus: status,
	}
}
