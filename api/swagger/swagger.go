package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Engine API",
        "description": "Constraint-driven academic timetable generation service",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    }
                }
            }
        },
        "/api/v1/auth/tokens": {
            "post": {
                "summary": "Issue a bearer token for a provisioned operator",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/generate": {
            "post": {
                "summary": "Generate a weekly schedule from batches and scheduling parameters",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/generate/async": {
            "post": {
                "summary": "Submit a generation request to the background queue",
                "responses": {
                    "202": {
                        "description": "Accepted"
                    }
                }
            }
        },
        "/api/v1/schedules/generate/async/{jobId}": {
            "get": {
                "summary": "Poll an asynchronous generation job's status",
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "202": {
                        "description": "Pending"
                    }
                }
            }
        },
        "/api/v1/schedules/analyze": {
            "post": {
                "summary": "Analyse feasibility of batches against scheduling parameters",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/relaxation-plan": {
            "post": {
                "summary": "Rank applicable constraint-relaxation strategies",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/relaxation-apply": {
            "post": {
                "summary": "Apply a relaxation plan to batches and parameters",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/partial": {
            "post": {
                "summary": "Generate a best-effort partial schedule",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/conflicts": {
            "post": {
                "summary": "Detect conflicts in a candidate schedule",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/conflicts/resolve": {
            "post": {
                "summary": "Apply automatic conflict resolutions above a confidence threshold",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/adjust": {
            "post": {
                "summary": "Analyse and apply a manual schedule adjustment",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/export.pdf": {
            "post": {
                "summary": "Render a schedule to PDF and return a signed download link",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/export.csv": {
            "post": {
                "summary": "Render a schedule to CSV and return a signed download link",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/exports/download": {
            "get": {
                "summary": "Download a previously rendered export via its signed token",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/runs": {
            "get": {
                "summary": "List recent generation-run audit records",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
