package domain

// Role identifies who is acting on an order. The engine gates every
// transition on the acting role.
type Role string

const (
	RoleClient   Role = "client"
	RoleExecutor Role = "executor"
	RoleAdmin    Role = "admin"
)

// BlobKind tags an attachment. The engine never inspects blob content,
// only its presence and kind.
type BlobKind string

const (
	BlobDocument BlobKind = "document"
	BlobPhoto    BlobKind = "photo"
	BlobText     BlobKind = "text"
)

// Blob is an opaque attachment reference passed through unchanged.
type Blob struct {
	Kind BlobKind `json:"kind" enum:"document,photo,text"`
	Ref  string   `json:"ref"`
	Name string   `json:"name,omitempty"`
}

// Materials are the up-to-three attachments a client may provide.
type Materials struct {
	Guideline *Blob `json:"guideline,omitempty"`
	Task      *Blob `json:"task,omitempty"`
	Example   *Blob `json:"example,omitempty"`
}

// Offer is one executor's proposed terms for an order. At most one offer
// per executor exists within an order; re-submission replaces in place.
type Offer struct {
	ExecutorID   string   `json:"executor_id"`
	ExecutorName string   `json:"executor_name,omitempty"`
	Price        int      `json:"price"`
	Deadline     Deadline `json:"deadline"`
	Comment      string   `json:"comment,omitempty"`
	CreatedAt    string   `json:"created_at" format:"date-time"`
}

// Submission is the executor's delivered work.
type Submission struct {
	File        Blob   `json:"file"`
	SubmittedAt string `json:"submitted_at"`
}

// PaymentState is the nested payment machine gating awaiting_payment -> in_progress.
type PaymentState string

const (
	PaymentNone           PaymentState = "none"
	PaymentProofRequested PaymentState = "proof_requested"
	PaymentProofSubmitted PaymentState = "proof_submitted"
	PaymentAccepted       PaymentState = "accepted"
	PaymentRejected       PaymentState = "rejected"
)

// Payment tracks the proof-of-payment sub-flow. WindowEndsAt is advisory:
// it is displayed to the client but never enforced.
type Payment struct {
	State        PaymentState `json:"state,omitempty" enum:"none,proof_requested,proof_submitted,accepted,rejected"`
	ProofID      string       `json:"proof_id,omitempty"`
	Proof        *Blob        `json:"proof,omitempty"`
	SubmittedAt  string       `json:"submitted_at,omitempty"`
	WindowEndsAt string       `json:"window_ends_at,omitempty"`
}

// Refusal records why an executor walked away from an in-progress order.
type Refusal struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment,omitempty"`
}

// Order is the aggregate root. Status is the single source of truth for
// which actions are legal; Offers exist only while negotiating.
type Order struct {
	ID         int64  `json:"order_id"`
	Status     Status `json:"status"`
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name,omitempty"`
	ExecutorID string `json:"executor_id,omitempty"`

	// InvitedExecutorID is set while a solo assignment waits for the
	// executor's answer; Declined collects broadcast refusals so the
	// order can fall back to under_review once everyone has passed.
	InvitedExecutorID string   `json:"invited_executor_id,omitempty"`
	Declined          []string `json:"declined,omitempty"`

	Subject  string `json:"subject"`
	WorkType string `json:"work_type"`
	Deadline string `json:"deadline,omitempty"` // client-stated due date, free form
	Comment  string `json:"comment,omitempty"`

	Materials Materials `json:"materials,omitempty"`
	Offers    []Offer   `json:"offers,omitempty"`

	// ExecutorPrice is the executor's own asking price; FinalPrice is
	// what the client pays (admin may override upward). The spread is
	// the operator's profit, reported on completion.
	ExecutorPrice    int       `json:"executor_price,omitempty"`
	FinalPrice       int       `json:"final_price,omitempty"`
	AssignedDeadline *Deadline `json:"assigned_deadline,omitempty"`
	DueDate          string    `json:"due_date,omitempty"`
	AdminComment     string    `json:"admin_comment,omitempty"`

	Payment         Payment     `json:"payment,omitempty"`
	Submitted       *Submission `json:"submitted_work,omitempty"`
	RevisionComment string      `json:"revision_comment,omitempty"`
	Refusal         *Refusal    `json:"refusal,omitempty"`

	CreatedAt string `json:"creation_date,omitempty"`
}

// ExecutorIsOperator reports whether the assigned executor is the operator
// (admin) themselves, which short-circuits the review step on delivery.
func (o Order) ExecutorIsOperator(operatorID string) bool {
	return o.ExecutorID != "" && o.ExecutorID == operatorID
}

// OfferByExecutor returns the executor's offer, if present.
func (o Order) OfferByExecutor(executorID string) (Offer, bool) {
	for _, of := range o.Offers {
		if of.ExecutorID == executorID {
			return of, true
		}
	}
	return Offer{}, false
}

// HasMaterials reports whether any attachment is present.
func (o Order) HasMaterials() bool {
	return o.Materials.Guideline != nil || o.Materials.Task != nil || o.Materials.Example != nil
}

// Executor is one entry of the executor registry.
type Executor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Profile is the stored client profile.
type Profile struct {
	ClientID   string `json:"client_id"`
	Name       string `json:"name,omitempty"`
	Group      string `json:"group,omitempty"`
	University string `json:"university,omitempty"`
	Gradebook  string `json:"gradebook,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Event is one row of the append-only event log.
type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	OrderID int64  `json:"order_id,omitempty"`
	ActorID string `json:"actor_id"`
	Payload string `json:"payload_json"`
}
