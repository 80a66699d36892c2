// Package compiler turns CUE entity profile definitions into ir.EntityProfile
// values and validates them.
//
// Profiles live under a top-level profile struct:
//
//	profile: student: {
//		table: "student"
//		stamp: "saqlangan_vaqt"
//		columns: {
//			familya: {type: "TEXT", required: true}
//			kurs:    {type: "INTEGER", min: 1, max: 6}
//		}
//		search: ["familya"]
//	}
//
// The student, ticher and inson profiles are embedded (see Builtin). Extra
// profiles are loaded from a directory with LoadProfiles.
package compiler
