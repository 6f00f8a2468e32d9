package models

import "time"

// TestPoint is one held-out row with its actual and predicted close.
type TestPoint struct {
	Time      time.Time `json:"time"`
	Actual    float64   `json:"actual"`
	Predicted float64   `json:"predicted"`
}

// Forecast is the outcome of one train-and-predict run.
type Forecast struct {
	Symbol             string      `json:"symbol"`
	LastClose          float64     `json:"last_close"`
	NextClose          float64     `json:"predicted_next_close"`
	LastTestPrediction float64     `json:"last_test_prediction"`
	MAE                float64     `json:"mae"`
	RMSE               float64     `json:"rmse"`
	TrainRows          int         `json:"train_rows"`
	TestRows           int         `json:"test_rows"`
	Test               []TestPoint `json:"test,omitempty"`
	GeneratedAt        time.Time   `json:"generated_at"`
}
