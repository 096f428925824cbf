package api

// FlowSummary — краткая информация о flow в списке.
type FlowSummary struct {
	Name      string `json:"name"`
	Published bool   `json:"published"`
	Approved  bool   `json:"approved"`
}

// CreateRunRequest — тело запроса на запуск flow.
type CreateRunRequest struct {
	// Inputs — входные переменные запуска.
	Inputs map[string]any `json:"inputs"`
}
