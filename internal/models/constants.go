package models

const (
	// ActorGuest и ActorCaptain попадают в журнал аудита как инициатор изменения
	ActorGuest   = "guest"
	ActorCaptain = "captain"
	ActorSystem  = "system"
)

const (
	PaymentUnpaid      = "unpaid"
	PaymentDepositPaid = "deposit_paid"
	PaymentPaidInFull  = "paid_in_full"
)

const (
	// DefaultStrideMinutes шаг генерации слотов для continuous-предложений
	DefaultStrideMinutes = 30

	// DefaultHorizonDays горизонт бронирования по умолчанию
	DefaultHorizonDays = 90

	// DefaultMinNoticeMinutes минимальное время до начала рейса
	DefaultMinNoticeMinutes = 60

	// DefaultOfferExpiryDays срок действия предложений переноса
	DefaultOfferExpiryDays = 14

	// DefaultFloorCapacity вместимость по умолчанию, если у капитана нет судов
	DefaultFloorCapacity = 6

	// DefaultMaxPartySize верхняя граница размера группы
	DefaultMaxPartySize = 50

	// DefaultDepositTimeoutHours окно ожидания депозита до перевода в expired
	DefaultDepositTimeoutHours = 48

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 256
)

// RescheduleOffsetsDays смещения для автогенерации предложений переноса
var RescheduleOffsetsDays = []int{7, 14, 21}
