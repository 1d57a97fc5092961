// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msf

// MachineType identifies the image architecture a PDB's debug
// information stream was generated for. Values match the
// IMAGE_FILE_MACHINE_* constants reported by the DBI stream header,
// which reuse the same encoding as a PE file's COFF header.
type MachineType uint16

// Known machine types.
const (
	MachineUnknown   = MachineType(0x0)    // applicable to any machine type
	MachineAM33      = MachineType(0x1d3)  // Matsushita AM33
	MachineAMD64     = MachineType(0x8664) // x64
	MachineARM       = MachineType(0x1c0)  // ARM little endian
	MachineARM64     = MachineType(0xaa64) // ARM64 little endian
	MachineARMNT     = MachineType(0x1c4)  // ARM Thumb-2 little endian
	MachineEBC       = MachineType(0xebc)  // EFI byte code
	MachineI386      = MachineType(0x14c)  // Intel 386 or later and compatible
	MachineIA64      = MachineType(0x200)  // Intel Itanium
	MachineM32R      = MachineType(0x9041) // Mitsubishi M32R little endian
	MachineMIPS16    = MachineType(0x266)  // MIPS16
	MachineMIPSFPU   = MachineType(0x366)  // MIPS with FPU
	MachineMIPSFPU16 = MachineType(0x466)  // MIPS16 with FPU
	MachinePowerPC   = MachineType(0x1f0)  // Power PC little endian
	MachinePowerPCFP = MachineType(0x1f1)  // Power PC with floating point support
	MachineR4000     = MachineType(0x166)  // MIPS little endian
	MachineRISCV32   = MachineType(0x5032) // RISC-V 32-bit address space
	MachineRISCV64   = MachineType(0x5064) // RISC-V 64-bit address space
	MachineRISCV128  = MachineType(0x5128) // RISC-V 128-bit address space
	MachineSH3       = MachineType(0x1a2)  // Hitachi SH3
	MachineSH3DSP    = MachineType(0x1a3)  // Hitachi SH3 DSP
	MachineSH4       = MachineType(0x1a6)  // Hitachi SH4
	MachineSH5       = MachineType(0x1a8)  // Hitachi SH5
	MachineTHUMB     = MachineType(0x1c2)  // Thumb
	MachineWCEMIPSv2 = MachineType(0x169)  // MIPS little-endian WCE v2
)

func (m MachineType) String() string {
	names := map[MachineType]string{
		MachineUnknown:   "UNKNOWN",
		MachineAM33:      "AM33",
		MachineAMD64:     "X64",
		MachineARM:       "ARM",
		MachineARM64:     "ARM64",
		MachineARMNT:     "ARMNT",
		MachineEBC:       "EBC",
		MachineI386:      "I386",
		MachineIA64:      "IA64",
		MachineM32R:      "M32R",
		MachineMIPS16:    "MIPS16",
		MachineMIPSFPU:   "MIPSFPU",
		MachineMIPSFPU16: "MIPSFPU16",
		MachinePowerPC:   "POWERPC",
		MachinePowerPCFP: "POWERPCFP",
		MachineR4000:     "R4000",
		MachineRISCV32:   "RISCV32",
		MachineRISCV64:   "RISCV64",
		MachineRISCV128:  "RISCV128",
		MachineSH3:       "SH3",
		MachineSH3DSP:    "SH3DSP",
		MachineSH4:       "SH4",
		MachineSH5:       "SH5",
		MachineTHUMB:     "THUMB",
		MachineWCEMIPSv2: "WCEMIPSV2",
	}
	if s, ok := names[m]; ok {
		return s
	}
	return "UNKNOWN"
}
