// internal/status/constants.go
package status

// Detection Status Block layout constants.
// These values define the register protocol seen by gate controllers and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per exported poller.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the detection link health.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code (HTTP status, or 1 network / 2 malformed).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the link has been in error.
const SlotSecondsInError = 2

// SlotShirt, SlotPants and SlotUniform hold the last known detection bits (0/1).
// They keep their value while the link is in error.
const (
	SlotShirt   = 3
	SlotPants   = 4
	SlotUniform = 5
)

// SlotConsecutiveFailures holds the number of failed polls since the last success.
const SlotConsecutiveFailures = 6

// ---- RESERVED RANGE ----

// Slots 7-10 are reserved for future use.
const SlotReservedStart = 7
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// MaxCounter is the saturation value for counters. Counters MUST NOT wrap.
const MaxCounter uint16 = 65535

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before the first poll settles.
const HealthUnknown uint16 = 0

// HealthOK represents a reachable detection server.
const HealthOK uint16 = 1

// HealthError represents an unreachable or misbehaving detection server.
const HealthError uint16 = 2
