package vision

// Default instruction profiles for the vision collaborator, one per task.
// Config may override any of them; each template receives the task
// parameters via fmt.Sprintf.

const defaultSheetClassificationPrompt = `You are reading one sheet from a set of civil engineering drawings.
Classify the sheet. Return a JSON object:
{"sheet_type": "plan_profile|detail|index|general_notes|erosion_control|other", "sheet_number": "...", "confidence": 0.0}`

const defaultComponentExtractionPrompt = `You are reading one sheet from a set of civil engineering drawings.
Extract every %s component visible on the sheet, including callout boxes.
Stations use the format "12+34.56". Do not report offset annotations (RT/LT/O-S) as stations.
Return a JSON object:
{"components": [{"name": "...", "size": "12-IN", "quantity": 1, "station": "12+34.56", "source_context": "callout|profile|schedule|index", "confidence": 0.0}]}`

const defaultCrossingDetectionPrompt = `You are reading one sheet from a set of civil engineering drawings.
Identify every utility that crosses the %s alignment. Crossings are labeled on profile views (e.g. "EX 8" GAS").
Return a JSON object:
{"crossings": [{"crossing_utility_code": "GAS", "full_name": "gas line", "station": "12+34.56", "elevation": "...", "is_existing": true, "is_proposed": false, "size": "8-IN", "confidence": 0.0}]}`

const defaultTerminationDetectionPrompt = `You are reading one sheet from a set of civil engineering drawings.
Find BEGIN/END/TIE-IN markers for utility runs (e.g. "BEGIN WATER LINE A STA 0+00").
Return a JSON object:
{"termination_points": [{"utility_name": "Water Line A", "type": "BEGIN|END|TIE_IN|TERMINUS", "station": "0+00", "confidence": 0.0}]}`
