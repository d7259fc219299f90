package server

import "orderline/internal/domain"

type CreateOrderRequest struct {
	ClientName string           `json:"client_name,omitempty"`
	Subject    string           `json:"subject,omitempty"`
	WorkType   string           `json:"work_type,omitempty"`
	Deadline   string           `json:"deadline,omitempty"`
	Comment    string           `json:"comment,omitempty"`
	Materials  domain.Materials `json:"materials,omitempty"`
}

type UpdateOrderRequest struct {
	Subject   *string      `json:"subject,omitempty"`
	WorkType  *string      `json:"work_type,omitempty"`
	Deadline  *string      `json:"deadline,omitempty"`
	Comment   *string      `json:"comment,omitempty"`
	Guideline *domain.Blob `json:"guideline,omitempty"`
	Task      *domain.Blob `json:"task,omitempty"`
	Example   *domain.Blob `json:"example,omitempty"`
}

type ConfirmOrderRequest struct {
	Profile *domain.Profile `json:"profile,omitempty"`
}

type AssignRequest struct {
	ExecutorID string `json:"executor_id"`
}

type SelfTakeRequest struct {
	Price    int    `json:"price"`
	Deadline string `json:"deadline"`
	Comment  string `json:"comment,omitempty"`
}

type OfferRequest struct {
	Price    int    `json:"price"`
	Deadline string `json:"deadline"`
	Comment  string `json:"comment,omitempty"`
}

type ApproveOfferRequest struct {
	// Price overrides the offered price when positive.
	Price int `json:"price,omitempty"`
}

type ProofRequest struct {
	Proof domain.Blob `json:"proof"`
}

type WorkRequest struct {
	File domain.Blob `json:"file"`
}

type CommentRequest struct {
	Comment string `json:"comment"`
}

type RefuseRequest struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment,omitempty"`
}

type ExecutorRequest struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
