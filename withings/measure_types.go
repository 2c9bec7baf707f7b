package withings

// MeasureType identifies a body measurement in getmeas results.
type MeasureType int

const (
	MeasureTypeWeight            MeasureType = 1
	MeasureTypeHeight            MeasureType = 4
	MeasureTypeFatFreeMass       MeasureType = 5
	MeasureTypeFatRatio          MeasureType = 6
	MeasureTypeFatMassWeight     MeasureType = 8
	MeasureTypeDiastolicBP       MeasureType = 9
	MeasureTypeSystolicBP        MeasureType = 10
	MeasureTypeHeartPulse        MeasureType = 11
	MeasureTypeTemperature       MeasureType = 12
	MeasureTypeSPO2              MeasureType = 54
	MeasureTypeBodyTemperature   MeasureType = 71
	MeasureTypeSkinTemperature   MeasureType = 73
	MeasureTypeMuscleMass        MeasureType = 76
	MeasureTypeHydration         MeasureType = 77
	MeasureTypeBoneMass          MeasureType = 88
	MeasureTypePulseWaveVelocity MeasureType = 91
)

// MeasureCategory distinguishes real measurements from user objectives.
type MeasureCategory int

const (
	// CategoryReal selects measurements taken by a device or entered by the user.
	CategoryReal MeasureCategory = 1
	// CategoryGoal selects user objectives.
	CategoryGoal MeasureCategory = 2
)

// Appli is the data class a notification subscription covers.
type Appli int

const (
	// AppliWeight covers weight and body composition.
	AppliWeight Appli = 1
	// AppliHeart covers heart rate and blood pressure.
	AppliHeart Appli = 4
	// AppliActivity covers steps, distance and calories.
	AppliActivity Appli = 16
	// AppliSleep covers sleep sessions.
	AppliSleep Appli = 44
	// AppliUser covers user profile changes.
	AppliUser Appli = 46
)
