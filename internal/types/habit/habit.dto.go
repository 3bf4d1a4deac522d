package habit

type CreateHabitRequest struct {
	Name      string    `json:"name" validate:"notblank,max=100"`
	Category  Category  `json:"category" validate:"omitempty,oneof=health productivity learning fitness other"`
	Frequency Frequency `json:"frequency" validate:"omitempty,oneof=daily weekly"`
}

// UpdateHabitRequest keeps the stored category or frequency when left empty.
type UpdateHabitRequest struct {
	Name      string    `json:"name" validate:"notblank,max=100"`
	Category  Category  `json:"category" validate:"omitempty,oneof=health productivity learning fitness other"`
	Frequency Frequency `json:"frequency" validate:"omitempty,oneof=daily weekly"`
}

type ToggleResponse struct {
	Habit     WithStatus `json:"habit"`
	Completed bool       `json:"completed"`
}
