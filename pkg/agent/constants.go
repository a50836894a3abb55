package agent

// MaxUploadSize is the maximum accepted PDF size (50 MB). Uploads beyond
// this are rejected before any agent runs.
const MaxUploadSize = 50 * 1024 * 1024 // 50 MB

// NativeTextThreshold is the minimum character count DocumentParser must
// extract from a PDF before OCRAgent treats it as text-native rather than
// scanned.
const NativeTextThreshold = 200

// PageTranslationConcurrency bounds how many pages/segments TranslationAgent
// translates at once.
const PageTranslationConcurrency = 5

// TranslationMaxAttempts bounds TranslationAgent's retry loop; each attempt
// reruns the whole selected translation pipeline.
const TranslationMaxAttempts = 3
