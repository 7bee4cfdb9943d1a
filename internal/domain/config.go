package domain

// KeyPrefix namespaces every key this service writes to the cache store.
const KeyPrefix = "chatbot:"
