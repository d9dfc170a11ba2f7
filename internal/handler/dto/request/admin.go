package request

type RequeueDeadLettersRequest struct {
	JobType string `json:"job_type" binding:"required"`
	Limit   int32  `json:"limit"`
}
