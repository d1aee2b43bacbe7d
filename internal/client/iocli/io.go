package iocli

// IO абстрагирует терминал для команд CLI. Команды пишут вывод и
// читают ввод только через этот интерфейс, поэтому в тестах терминал
// подменяется буфером, а ReadPassword не требует tty
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
