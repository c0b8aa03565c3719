package content

// Sample records stand in for empty collections on the public pages.

// SampleStats are the published headline figures.
func SampleStats() Stats {
	return Stats{
		SuccessfulSubmissions: 50,
		ProjectWeeksSaved:     500,
		YearsExperience:       25,
		CountriesServed:       15,
	}
}

func SampleTestimonials() []Testimonial {
	return []Testimonial{
		{
			ID:      "1",
			Name:    "Dr. Sarah Chen",
			Role:    "VP Regulatory Affairs",
			Company: "BioGenix Therapeutics",
			Content: "Mevoq cut our FDA submission timeline by 40%. Their expertise in regulatory strategy is unmatched. We launched 3 months ahead of schedule.",
			Rating:  5,
		},
		{
			ID:      "2",
			Name:    "Marcus Williams",
			Role:    "Chief Scientific Officer",
			Company: "PharmaTech Solutions",
			Content: "The team's deep regulatory knowledge and proactive approach saved us from costly compliance issues. Best consulting investment we've made.",
			Rating:  5,
		},
		{
			ID:      "3",
			Name:    "Dr. Amelia Rodriguez",
			Role:    "Director of Quality",
			Company: "MedLife Innovations",
			Content: "Working with Mevoq felt like having an extension of our own team. Their documentation expertise is exceptional.",
			Rating:  5,
		},
	}
}

func SampleServices() []Service {
	return []Service{
		{
			ID:          "1",
			Title:       "Regulatory Strategy & Planning",
			Description: "Navigate complex regulatory pathways with confidence. We design optimal strategies for global market access.",
			Icon:        IconMapPin,
			Features: StringList{
				"Regulatory pathway assessment",
				"Meeting preparation (FDA, EMA, PMDA)",
				"Risk mitigation strategies",
				"Global harmonization planning",
				"Labeling & artwork",
				"Technical file preparations",
				"Clinical evaluation reports",
			},
			CaseStudySnippet: "Helped biotech company achieve FDA breakthrough designation",
		},
		{
			ID:          "2",
			Title:       "Regulatory Documentation",
			Description: "Expert preparation of submission-ready regulatory documents that meet global standards.",
			Icon:        IconFileText,
			Features: StringList{
				"IND/NDA/BLA preparation",
				"CTD/eCTD compilation",
				"DMFs, ASMFs, CEPs, CADIFAs, etc.",
			},
			CaseStudySnippet: "Created complete NDA package in 4 months vs. industry average of 8",
		},
		{
			ID:          "3",
			Title:       "Quality & Compliance",
			Description: "Build robust quality systems that pass inspections and ensure sustainable compliance.",
			Icon:        IconShieldCheck,
			Features: StringList{
				"Quality system design & remediation",
				"GMP/GCP compliance audits",
				"Inspection readiness",
				"CAPA effectiveness review",
			},
			CaseStudySnippet: "Successful GMP inspections by regulatory authorities for our clients",
		},
		{
			ID:          "4",
			Title:       "Medical & Scientific Writing",
			Description: "Clear, compelling regulatory narratives that accelerate review and approval.",
			Icon:        IconPenTool,
			Features: StringList{
				"Clinical study reports",
				"Regulatory responses",
				"Scientific publications",
				"Patient-facing materials",
			},
			CaseStudySnippet: "Successfully addressed the queries raised by ethics committee",
		},
		{
			ID:          "5",
			Title:       "Risk Management",
			Description: "Proactive identification and mitigation of regulatory and quality risks.",
			Icon:        IconAlertTriangle,
			Features: StringList{
				"Risk assessments",
				"Gap analysis",
				"Deviation investigation",
				"Change control evaluation",
			},
			CaseStudySnippet: "Successful vendor approval through nitrosamine impurities compliance",
		},
		{
			ID:          "6",
			Title:       "Administrative Support",
			Description: "Streamline your compliance operations with expert administrative assistance.",
			Icon:        IconFolder,
			Features: StringList{
				"Document management",
				"Submission tracking",
				"Regulatory intelligence",
				"Process optimization",
				"US authorized agent",
				"US FDA administrative activities",
				"Accreditation certification applications",
			},
			CaseStudySnippet: "Reduced administrative burden by 60% for mid-size pharma",
		},
	}
}

func SampleTeam() []TeamMember {
	return []TeamMember{
		{
			ID:        "1",
			Name:      "Dr. Ashok Shah",
			Role:      "Founder & Chief Regulatory Officer",
			Bio:       "Former FDA reviewer with 15+ years in pharmaceutical regulation. Led 200+ successful drug approvals.",
			Expertise: StringList{"FDA Strategy", "CMC Review", "IND/NDA Submissions"},
		},
		{
			ID:        "2",
			Name:      "Mr. Manish Purohit",
			Role:      "VP Quality & Compliance",
			Bio:       "Quality systems expert with Big Pharma and biotech experience. Specializes in remediation and inspection readiness.",
			Expertise: StringList{"Quality Systems", "GMP Compliance", "Inspection Management"},
		},
		{
			ID:        "3",
			Name:      "Mr. Shailesh Shah",
			Role:      "Director of Regulatory Writing",
			Bio:       "Medical writer and regulatory affairs specialist. Authored regulatory documents for 50+ global submissions.",
			Expertise: StringList{"Medical Writing", "Regulatory Documentation", "Global Submissions"},
		},
	}
}
