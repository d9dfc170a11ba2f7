package response

type RequeueDeadLettersResponse struct {
	Requeued int `json:"requeued"`
}
