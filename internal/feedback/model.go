package feedback

// Correction is the body of POST /food/feedback.
type Correction struct {
	RecognitionID      string   `json:"recognitionId"`
	CorrectFoodName    string   `json:"correctFoodName"`
	CorrectOrigin      string   `json:"correctOrigin"`
	CorrectIngredients []string `json:"correctIngredients,omitempty"`
	CorrectDescription string   `json:"correctDescription,omitempty"`
	UserID             string   `json:"userId,omitempty"`
}

// Fields are the user-editable parts of a correction.
type Fields struct {
	Name        string   `json:"correctFoodName"`
	Origin      string   `json:"correctOrigin"`
	Ingredients []string `json:"correctIngredients,omitempty"`
	Description string   `json:"correctDescription,omitempty"`
}

type Status string

const (
	StatusEditing    Status = "editing"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
)
