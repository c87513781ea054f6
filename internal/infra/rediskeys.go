package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "fraudwatch"
)

// Каналы Pub/Sub (события между инстансами консоли)
const (
	// RedisChanBatchCompleted — пакет обработан, остальные консоли могут перечитать дашборд.
	RedisChanBatchCompleted = RedisNamespace + ":batches:completed"
	// RedisChanReviewSubmitted — вердикт вынесен, транзакцию нужно убрать из чужих очередей.
	RedisChanReviewSubmitted = RedisNamespace + ":reviews:submitted"
)
