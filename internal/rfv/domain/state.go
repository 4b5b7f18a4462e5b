package domain

// Status is the outreach task lifecycle state.
type Status string

const (
	// StatusPendente is the initial state of every generated task.
	StatusPendente Status = "pendente"
	// StatusEnviado means the operator sent the suggested message.
	StatusEnviado Status = "enviado"
	// StatusRespondeu means the customer replied to the outreach.
	StatusRespondeu Status = "respondeu"
	// StatusSemResposta means the outreach went unanswered.
	StatusSemResposta Status = "sem_resposta"
	// StatusConverteu means a later paid order was attributed to the task. Terminal.
	StatusConverteu Status = "converteu"
	// StatusSkipped means the operator dismissed the task. Terminal.
	StatusSkipped Status = "skipped"
)

// operatorTransitions lists the forward transitions an operator may perform.
// The attributor's transition to converteu is not here: it is performed only
// by the revenue attribution pass.
var operatorTransitions = map[Status][]Status{
	StatusPendente:    {StatusEnviado, StatusSkipped},
	StatusEnviado:     {StatusRespondeu, StatusSemResposta},
	StatusRespondeu:   {},
	StatusSemResposta: {},
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPendente, StatusEnviado, StatusRespondeu, StatusSemResposta, StatusConverteu, StatusSkipped:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func IsTerminal(s Status) bool {
	return s == StatusConverteu || s == StatusSkipped
}

// CanTransition reports whether an operator may move a task from one status
// to another. Reopening (back to pendente) is allowed from any non-pendente,
// non-terminal state.
func CanTransition(from, to Status) bool {
	if !ValidStatus(from) || !ValidStatus(to) {
		return false
	}
	if to == StatusPendente {
		return IsReopen(from, to)
	}
	for _, next := range operatorTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsReopen reports whether the transition is a reopen, which clears the
// execution stamp instead of setting it.
func IsReopen(from, to Status) bool {
	return to == StatusPendente && from != StatusPendente && !IsTerminal(from)
}

// AttributableStatuses are the states from which the revenue attributor may
// close a task as converteu. A task must have been acted on (enviado or
// later) and must not already be terminal.
func AttributableStatuses() []Status {
	return []Status{StatusEnviado, StatusRespondeu, StatusSemResposta}
}
