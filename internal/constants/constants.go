package constants

import "time"

var CacheTTL = struct {
	Categories time.Duration
}{
	Categories: 30 * time.Minute, // category list changes rarely upstream
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Jitter:      250 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    1 * time.Hour,
	HealthCheckInterval: 10 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var APIConfig = struct {
	MealDBTimeout time.Duration
}{
	MealDBTimeout: 10 * time.Second,
}

var RecipeConfig = struct {
	MaxIngredientSlots int
	DetailConcurrency  int
	DetailTimeout      time.Duration
}{
	MaxIngredientSlots: 20, // TheMealDB lookup payloads carry strIngredient1..20
	DetailConcurrency:  8,
	DetailTimeout:      90 * time.Second,
}

var TranslateConfig = struct {
	MaxConcurrency int
	ItemTimeout    time.Duration
}{
	MaxConcurrency: 4,
	ItemTimeout:    30 * time.Second,
}

var TelegramConfig = struct {
	UpdateTimeoutSeconds int
	MaxInstructionRunes  int
}{
	UpdateTimeoutSeconds: 30,
	MaxInstructionRunes:  3000, // message cap is 4096, leave room for name and ingredients
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}
