package broken

//repox:repository unit=
type Broken interface {
	Flush() error
}
