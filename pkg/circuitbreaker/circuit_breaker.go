package circuitbreaker

// CircuitBreaker guards calls to an external service and fails fast once the
// service is deemed unhealthy.
type CircuitBreaker[Request any, Response any] interface {
	Execute(request Request, task func(Request) (Response, error)) (Response, error)
}
