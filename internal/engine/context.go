package engine

// Context — контекст выполнения одного запуска flow.
//
// Хранит переменные: начальные значения из документа flow и входных
// параметров запуска плюс выходные значения уже выполненных шагов.
// Переменная, записанная шагом, видна только последующим шагам того
// же запуска; контекст уничтожается по завершении запуска.
//
// Контекст не потокобезопасен: шаги одного запуска выполняются
// строго последовательно.
type Context struct {
	vars map[string]any
}

// NewContext создаёт контекст с начальными переменными.
func NewContext(initial map[string]any) *Context {
	vars := make(map[string]any, len(initial))
	for k, v := range initial {
		vars[k] = v
	}
	return &Context{vars: vars}
}

// Set записывает переменную.
func (c *Context) Set(name string, value any) {
	c.vars[name] = value
}

// Get возвращает переменную и признак её наличия.
func (c *Context) Get(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// All возвращает копию всех переменных.
func (c *Context) All() map[string]any {
	out := make(map[string]any, len(c.vars))
	for k, v := range c.vars {
		out[k] = v
	}
	return out
}

// Len возвращает количество переменных.
func (c *Context) Len() int {
	return len(c.vars)
}
