package model

import internalmodel "github.com/goliatone/go-nodegen/internal/model"

// SemanticType re-exports the internal semantic type enumeration.
type SemanticType = internalmodel.SemanticType

const (
	TypeText    = internalmodel.TypeText
	TypeInteger = internalmodel.TypeInteger
	TypeFloat   = internalmodel.TypeFloat
	TypeBoolean = internalmodel.TypeBoolean
	TypeEnum    = internalmodel.TypeEnum
	TypeImage   = internalmodel.TypeImage
	TypeAudio   = internalmodel.TypeAudio
	TypeVideo   = internalmodel.TypeVideo
)

const (
	ForceRerunInput = internalmodel.ForceRerunInput
	FloatStep       = internalmodel.FloatStep
	FloatRound      = internalmodel.FloatRound
)

type WidgetConfig = internalmodel.WidgetConfig
type InputDescriptor = internalmodel.InputDescriptor
type InputSet = internalmodel.InputSet
type OutputField = internalmodel.OutputField
type OutputSpec = internalmodel.OutputSpec
type Binding = internalmodel.Binding
type Evidence = internalmodel.Evidence
