package api

// Option configures a Server.
type Option func(*Server)

// WithRateLimit limits each client address to perMinute mutating requests
// with the given burst. Non-positive values disable limiting.
func WithRateLimit(perMinute, burst int) Option {
	return func(s *Server) {
		s.limiter = newRateLimiter(perMinute, burst)
	}
}
