package config

const (
	BlobDriverMemory = "memory"
	BlobDriverRedis  = "redis"
	BlobDriverNatsKV = "natskv"

	DefaultBlobBucket        = "clinic_sim"
	DefaultPatientRootPrefix = "patient_profile"
	DefaultSessionDataPrefix = "patient_data"

	DefaultPatientId           = "P0001"
	DefaultRecognitionLanguage = "en-US"

	PatientSeedFileName    = "patient_info.md"
	PatientSeedFileContent = "# Patient Profile\nName: \nAge: "

	TranscriptFileName    = "transcript.json"
	DefaultScriptFileName = "scenario_script.json"
	QuestionPoolFileName  = "question_pool.json"

	SessionModeConsultation     = "consultation"
	SessionModeScriptedPlayback = "scripted_playback"

	AdvisorProviderOpenAI = "openai"
	AdvisorProviderGoogle = "google"

	DefaultSessionEventsSubject = "sessionEvents"
)
