package domain

// Operation — защищённая операция над flow.
type Operation string

const (
	// OpView — просмотр документа flow.
	OpView Operation = "view"

	// OpEdit — изменение шагов flow.
	OpEdit Operation = "edit"

	// OpPublish — публикация flow.
	OpPublish Operation = "publish"

	// OpApprove — утверждение flow.
	OpApprove Operation = "approve"

	// OpRun — запуск flow.
	OpRun Operation = "run"
)

// RoleMap — карта ролей flow: операция → список разрешённых ролей.
//
// Движок не знает конкретных имён ролей — они целиком определяются
// документом flow и проверяются против роли, переданной вызывающим.
type RoleMap map[Operation][]string

// Allows проверяет, разрешена ли операция для роли.
//
// Если операция отсутствует в карте, доступ запрещён (fail closed).
func (m RoleMap) Allows(op Operation, role string) bool {
	roles, ok := m[op]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
