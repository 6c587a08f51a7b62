package domain

type CommandType string

const (
	CommandStart   CommandType = "start"
	CommandHelp    CommandType = "help"
	CommandRandom  CommandType = "random"
	CommandUnknown CommandType = "unknown"
)

func (c CommandType) String() string {
	return string(c)
}
