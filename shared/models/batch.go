package models

// BatchFailure ключ элемента пакета и причина, по которой он не был применен.
type BatchFailure[K any] struct {
	Key    K      `json:"key"`
	Reason string `json:"reason"`
}

// BatchResult итог пакетной операции в режиме best-effort.
type BatchResult[K any] struct {
	SuccessfulKeys       []K               `json:"successfulKeys"`
	FailedKeysWithReason []BatchFailure[K] `json:"failedKeysWithReason"`
}

// NewBatchResult создает пустой результат с ненулевыми срезами (в JSON уходят [] вместо null).
func NewBatchResult[K any]() *BatchResult[K] {
	return &BatchResult[K]{
		SuccessfulKeys:       make([]K, 0),
		FailedKeysWithReason: make([]BatchFailure[K], 0),
	}
}

// HasFailures сообщает, есть ли неуспешные элементы.
func (r *BatchResult[K]) HasFailures() bool {
	return len(r.FailedKeysWithReason) > 0
}
