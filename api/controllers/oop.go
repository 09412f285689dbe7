package controllers

import (
	"net/http"

	"github.com/denr-penro-mrq/permittree-backend/api/middleware"
	"github.com/denr-penro-mrq/permittree-backend/api/responses"
	"github.com/denr-penro-mrq/permittree-backend/api/validators"
	"github.com/denr-penro-mrq/permittree-backend/internal/oop"
	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	pkgerrors "github.com/denr-penro-mrq/permittree-backend/pkg/errors"
	"github.com/denr-penro-mrq/permittree-backend/pkg/logger"
)

type signOOPRequest struct {
	Signatory string `json:"signatory" validate:"required"`
}

type approveOOPRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

type updateOOPItemsRequest struct {
	Items []models.OOPLineItem `json:"items" validate:"required,min=1"`
}

type paymentProofRequest struct {
	ProofRef string `json:"proof_ref" validate:"required"`
}

type reviewPaymentProofRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// GetOOP returns the order of payment attached to the permit.
func GetOOP(svc oop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		permitID, err := parsePermitID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), permitID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateOOPItems replaces the billing line items while the ledger is still
// open for edits.
func UpdateOOPItems(svc oop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		permitID, err := parsePermitID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateOOPItemsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateItems(r.Context(), permitID, req.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SignOOP fills one signature slot. The slot must match the caller's role
// unless the caller is an admin.
func SignOOP(svc oop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		permitID, err := parsePermitID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req signOOPRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		signatory, err := enums.ParseSignatory(req.Signatory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid signatory"))
			return
		}

		role := enums.Role(middleware.RoleFromContext(r.Context()))
		if role != enums.RoleAdmin && signatorySlotFor(role) != signatory {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "signature slot does not match role"))
			return
		}

		result, err := svc.Sign(r.Context(), permitID, signatory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ApproveOOP records the officer's approve or reject decision.
func ApproveOOP(svc oop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		permitID, err := parsePermitID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req approveOOPRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Approve(r.Context(), permitID, *req.Approved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RequestOOPPayment moves an approved order of payment into the payment
// window.
func RequestOOPPayment(svc oop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		permitID, err := parsePermitID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RequestPayment(r.Context(), permitID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SubmitOOPPaymentProof records the applicant's proof of payment reference.
func SubmitOOPPaymentProof(svc oop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		permitID, err := parsePermitID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req paymentProofRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SubmitPaymentProof(r.Context(), permitID, req.ProofRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReviewOOPPaymentProof accepts or rejects a submitted proof of payment.
func ReviewOOPPaymentProof(svc oop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		permitID, err := parsePermitID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req reviewPaymentProofRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ReviewPaymentProof(r.Context(), permitID, *req.Approved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func signatorySlotFor(role enums.Role) enums.Signatory {
	switch role {
	case enums.RoleChiefRPS:
		return enums.SignatoryChiefRPS
	case enums.RoleChiefTSD:
		return enums.SignatoryTechnicalServices
	}
	return ""
}
