package upstream

// Collection is one payment record as the LMS backend serialises it.
// Older rows may omit the approval fields entirely, so they are pointers
// here and defaulted during normalisation.
type Collection struct {
	ID            string  `json:"id"`
	CustomerName  string  `json:"customerName"`
	VehicleNumber string  `json:"vehicleNumber"`
	ContactNumber string  `json:"contactNumber"`
	LoanID        string  `json:"loanId"`
	Partner       string  `json:"partner"`
	CollectedBy   string  `json:"collectedBy"`
	Amount        float64 `json:"amount"`
	PaymentMode   string  `json:"paymentMode"`
	PaymentRef    string  `json:"paymentRef"`
	PaymentDate   string  `json:"paymentDate"`
	CreatedAt     string  `json:"createdAt"`
	Image1Present bool    `json:"image1Present"`
	Image2Present bool    `json:"image2Present"`
	SelfiePresent bool    `json:"selfiePresent"`
	Approved      *bool   `json:"approved"`
	ApprovedBy    *string `json:"approved_by"`
	BankDate      string  `json:"bankDate"`
	BankUTR       string  `json:"bankUtr"`
	Status        string  `json:"status"`
}

// ListResponse is the paginated listing envelope.
type ListResponse struct {
	Data       []Collection `json:"data"`
	Total      int          `json:"total"`
	TotalPages *int         `json:"totalPages"`
}

// ApproveRequest is the approval payload sent upstream.
type ApproveRequest struct {
	Partner  string `json:"partner"`
	BankDate string `json:"bankDate"`
	BankUTR  string `json:"bankUtr"`
}

// ApproveResponse carries the server-side approver identity.
type ApproveResponse struct {
	ApprovedBy string `json:"approved_by"`
}

// User is one field agent in the upstream directory.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LoginRequest is the credential payload forwarded at sign-in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the upstream session grant.
type LoginResponse struct {
	Token   string `json:"token"`
	Partner string `json:"partner"`
	Name    string `json:"name"`
}

type errorEnvelope struct {
	Message     string `json:"message"`
	LMSResponse *struct {
		RowErrors []struct {
			Reason string `json:"reason"`
		} `json:"row_errors"`
	} `json:"lmsResponse"`
}
