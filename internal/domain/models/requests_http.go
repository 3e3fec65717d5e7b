package models

// Requests for prediction HTTP endpoints. Defined in domain for consistency and reuse.

type PredictionsRequest struct {
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	Regime string `query:"regime" json:"regime" default:"" validate:"omitempty,oneof=Low Rising High Decay"`
}

type ValidationRequest struct {
	Days int `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
}

type TradesRequest struct {
	Status string `query:"status" json:"status" default:"all" validate:"oneof=open closed all"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
	Offset int    `query:"offset" json:"offset" default:"0" validate:"gte=0"`
}

type HistoryRequest struct {
	Token string `param:"token" json:"token" validate:"required"`
	Hours int    `query:"hours" json:"hours" default:"24" validate:"gte=1,lte=720"`
	Limit int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=10000"`
}
